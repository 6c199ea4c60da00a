package http

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/omaks45/Brainiac-backend/internal/app"
	"github.com/omaks45/Brainiac-backend/internal/infra/memory"
	"github.com/omaks45/Brainiac-backend/internal/notify"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	quizzes := memory.NewQuizStore()
	hub := notify.NewHub(nil)
	challenges := app.NewChallengeService(
		memory.NewChallengeStore(), quizzes, memory.NewStaticQuizGenerator(), hub, nil,
		app.ChallengeConfig{TTL: time.Hour, QuestionCount: 2},
	)
	attempts := app.NewAttemptService(memory.NewAttemptStore(), quizzes, quizzes, challenges)
	quizService := app.NewQuizService(quizzes, memory.NewStaticQuizGenerator())
	handler := NewWSHandler(challenges, attempts, quizService, hub)

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", handler.ServeWS)
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func dial(t *testing.T, server *httptest.Server, userID string) *websocket.Conn {
	t.Helper()
	u := "ws" + server.URL[len("http"):] + "/ws?userId=" + userID
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	if err != nil {
		t.Fatalf("dial %s: %v", userID, err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readNext(t *testing.T, conn *websocket.Conn, expect string) map[string]any {
	t.Helper()
	var msg struct {
		Type    string         `json:"type"`
		Payload map[string]any `json:"payload"`
	}
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read json: %v", err)
	}
	if expect != "" && msg.Type != expect {
		t.Fatalf("expected type %s, got %s (%+v)", expect, msg.Type, msg.Payload)
	}
	return msg.Payload
}

// readUntil scans messages until every expected type has been seen once,
// tolerating interleaving between direct replies and hub pushes.
func readUntil(t *testing.T, conn *websocket.Conn, expect ...string) map[string]map[string]any {
	t.Helper()
	seen := make(map[string]map[string]any)
	for i := 0; i < len(expect)+4; i++ {
		var msg struct {
			Type    string         `json:"type"`
			Payload map[string]any `json:"payload"`
		}
		_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
		if err := conn.ReadJSON(&msg); err != nil {
			t.Fatalf("read json: %v", err)
		}
		seen[msg.Type] = msg.Payload
		done := true
		for _, typ := range expect {
			if _, ok := seen[typ]; !ok {
				done = false
				break
			}
		}
		if done {
			return seen
		}
	}
	t.Fatalf("did not see %v, got %v", expect, seen)
	return nil
}

func send(t *testing.T, conn *websocket.Conn, msgType string, payload any) {
	t.Helper()
	if err := conn.WriteJSON(map[string]any{"type": msgType, "payload": payload}); err != nil {
		t.Fatalf("write %s: %v", msgType, err)
	}
}

func TestChallengeFlowOverWebSocket(t *testing.T) {
	server := newTestServer(t)
	alice := dial(t, server, "alice")
	bob := dial(t, server, "bob")

	// Alice issues the challenge.
	send(t, alice, "challenge:create", map[string]any{
		"challengedId": "bob",
		"category":     "science",
		"difficulty":   "easy",
	})
	created := readNext(t, alice, "challenge")
	challengeID, _ := created["id"].(string)
	quizID, _ := created["quizId"].(string)
	if challengeID == "" || quizID == "" {
		t.Fatalf("expected challenge with quiz, got %+v", created)
	}
	if created["status"] != "pending" {
		t.Fatalf("expected pending, got %v", created["status"])
	}

	// Bob is notified without polling.
	notified := readNext(t, bob, "challenge:created")
	if notified["challengeId"] != challengeID {
		t.Fatalf("expected notification for %s, got %+v", challengeID, notified)
	}

	// Bob accepts; Alice hears about it.
	send(t, bob, "challenge:accept", map[string]any{"challengeId": challengeID})
	accepted := readNext(t, bob, "challenge")
	if accepted["status"] != "accepted" {
		t.Fatalf("expected accepted, got %v", accepted["status"])
	}
	readNext(t, alice, "challenge:accepted")

	// Alice submits a perfect run (generated answer key is index i mod 4).
	send(t, alice, "quiz:submit", map[string]any{
		"quizId":      quizID,
		"challengeId": challengeID,
		"answers": []map[string]any{
			{"questionIndex": 0, "selectedAnswer": 0, "timeSpent": 5},
			{"questionIndex": 1, "selectedAnswer": 1, "timeSpent": 5},
		},
	})
	result := readNext(t, alice, "attemptResult")
	if result["percentage"] != float64(100) {
		t.Fatalf("expected 100%%, got %v", result["percentage"])
	}

	// Bob only learns that his opponent finished, never the score.
	progress := readNext(t, bob, "challenge:progress")
	if _, leaked := progress["score"]; leaked {
		t.Fatalf("progress must not reveal scores: %+v", progress)
	}

	// Bob submits a losing run; both sides get the final outcome.
	send(t, bob, "quiz:submit", map[string]any{
		"quizId":      quizID,
		"challengeId": challengeID,
		"answers": []map[string]any{
			{"questionIndex": 0, "selectedAnswer": 3, "timeSpent": 9},
			{"questionIndex": 1, "selectedAnswer": 1, "timeSpent": 9},
		},
	})
	bobSeen := readUntil(t, bob, "attemptResult", "challenge:completed")
	completed := bobSeen["challenge:completed"]
	if completed["winnerId"] != "alice" || completed["isDraw"] != false {
		t.Fatalf("expected alice winning, got %+v", completed)
	}

	aliceCompleted := readNext(t, alice, "challenge:completed")
	if aliceCompleted["winnerId"] != "alice" {
		t.Fatalf("expected alice notified of win, got %+v", aliceCompleted)
	}
}

func TestChallengeListAndRooms(t *testing.T) {
	server := newTestServer(t)
	alice := dial(t, server, "alice")
	bob := dial(t, server, "bob")

	send(t, alice, "challenge:create", map[string]any{
		"challengedId": "bob", "category": "history", "difficulty": "hard",
	})
	created := readNext(t, alice, "challenge")
	challengeID := created["id"].(string)
	readNext(t, bob, "challenge:created")

	send(t, bob, "challenge:list", map[string]any{"status": "pending"})
	var listMsg struct {
		Type    string           `json:"type"`
		Payload []map[string]any `json:"payload"`
	}
	_ = bob.SetReadDeadline(time.Now().Add(5 * time.Second))
	if err := bob.ReadJSON(&listMsg); err != nil {
		t.Fatalf("read list: %v", err)
	}
	if listMsg.Type != "challenges" || len(listMsg.Payload) != 1 {
		t.Fatalf("expected one pending challenge, got %+v", listMsg)
	}

	send(t, bob, "challenge:join", map[string]any{"challengeId": challengeID})
	joined := readNext(t, bob, "joined")
	if joined["room"] != "challenge:"+challengeID {
		t.Fatalf("unexpected room: %+v", joined)
	}

	send(t, bob, "challenge:leave", map[string]any{"challengeId": challengeID})
	readNext(t, bob, "left")
}

func TestQuizDeliveryHidesAnswerKey(t *testing.T) {
	server := newTestServer(t)
	alice := dial(t, server, "alice")

	send(t, alice, "quiz:generate", map[string]any{
		"category": "science", "difficulty": "easy", "questionCount": 2,
	})
	quiz := readNext(t, alice, "quiz")
	quizID, _ := quiz["id"].(string)
	if quizID == "" {
		t.Fatalf("expected generated quiz, got %+v", quiz)
	}

	send(t, alice, "quiz:get", map[string]any{"quizId": quizID})
	fetched := readNext(t, alice, "quiz")
	questions, ok := fetched["questions"].([]any)
	if !ok || len(questions) != 2 {
		t.Fatalf("expected 2 questions, got %+v", fetched)
	}
	for i, raw := range questions {
		q := raw.(map[string]any)
		if _, leaked := q["correctAnswerIndex"]; leaked {
			t.Fatalf("question %d leaks the answer key: %+v", i, q)
		}
		if _, leaked := q["explanation"]; leaked {
			t.Fatalf("question %d leaks the explanation: %+v", i, q)
		}
	}
}

func TestWebSocketErrorPayloads(t *testing.T) {
	server := newTestServer(t)
	alice := dial(t, server, "alice")
	carol := dial(t, server, "carol")

	send(t, alice, "bogus", map[string]any{})
	errMsg := readNext(t, alice, "error")
	if errMsg["message"] != "unsupported message type" {
		t.Fatalf("unexpected error payload: %+v", errMsg)
	}

	send(t, alice, "challenge:create", map[string]any{"challengedId": "alice"})
	errMsg = readNext(t, alice, "error")
	if errMsg["message"] == "" || errMsg["message"] == "internal error" {
		t.Fatalf("expected self-challenge error, got %+v", errMsg)
	}

	// Only the challenged user may accept.
	send(t, alice, "challenge:create", map[string]any{
		"challengedId": "bob", "category": "science", "difficulty": "easy",
	})
	created := readNext(t, alice, "challenge")
	send(t, carol, "challenge:accept", map[string]any{"challengeId": created["id"]})
	errMsg = readNext(t, carol, "error")
	if errMsg["message"] == "" || errMsg["message"] == "internal error" {
		t.Fatalf("expected domain error passthrough, got %+v", errMsg)
	}
}

func TestWebSocketRequiresUserID(t *testing.T) {
	server := newTestServer(t)
	resp, err := http.Get(server.URL + "/ws")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}
