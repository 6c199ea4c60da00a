package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/omaks45/Brainiac-backend/internal/app"
	"github.com/omaks45/Brainiac-backend/internal/domain"
	"github.com/omaks45/Brainiac-backend/internal/notify"
)

// WSHandler bridges websocket sessions to the challenge and grading use
// cases. Each connection registers with the hub so lifecycle events emitted
// by either participant's actions reach this session too.
type WSHandler struct {
	challenges *app.ChallengeService
	attempts   *app.AttemptService
	quizzes    *app.QuizService
	hub        *notify.Hub
	upgrader   websocket.Upgrader
	log        *logrus.Entry
}

func NewWSHandler(challenges *app.ChallengeService, attempts *app.AttemptService, quizzes *app.QuizService, hub *notify.Hub) *WSHandler {
	return &WSHandler{
		challenges: challenges,
		attempts:   attempts,
		quizzes:    quizzes,
		hub:        hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		log: logrus.WithField("component", "ws"),
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

type createPayload struct {
	ChallengedID string `json:"challengedId"`
	Category     string `json:"category"`
	Difficulty   string `json:"difficulty"`
}

type challengeRefPayload struct {
	ChallengeID string `json:"challengeId"`
}

type listPayload struct {
	Status string `json:"status"`
}

type generatePayload struct {
	Category      string `json:"category"`
	Difficulty    string `json:"difficulty"`
	QuestionCount int    `json:"questionCount"`
}

type quizRefPayload struct {
	QuizID string `json:"quizId"`
}

type roomPayload struct {
	Room string `json:"room"`
}

// ServeWS upgrades the request and runs the session loop until the socket
// closes.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	if userID == "" {
		http.Error(w, "missing userId", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.WithError(err).Warn("ws upgrade failed")
		return
	}
	defer conn.Close()

	client, unregister := h.hub.Register(userID)
	defer unregister()

	send := make(chan outboundMessage[any], 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	eventsDone := make(chan struct{})

	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				h.log.WithError(err).Debug("ws write error")
				return
			}
		}
	}()

	go func() {
		defer close(eventsDone)
		for {
			select {
			case msg, ok := <-client.Receive():
				if !ok {
					return
				}
				select {
				case send <- outboundMessage[any]{Type: msg.Event, Payload: msg.Payload}:
				case <-closeSignals:
					return
				}
			case <-closeSignals:
				return
			}
		}
	}()

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		h.dispatch(r, client, send, inbound)
	}

	close(closeSignals)
	<-eventsDone
	close(send)
	<-writerDone
}

func (h *WSHandler) dispatch(r *http.Request, client *notify.Client, send chan<- outboundMessage[any], inbound inboundMessage) {
	ctx := r.Context()
	userID := client.UserID()

	fail := func(err error) {
		send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: errMessage(err)}}
	}

	switch inbound.Type {
	case "challenge:create":
		var payload createPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			fail(errInvalidPayload)
			return
		}
		ch, err := h.challenges.Create(ctx, userID, payload.ChallengedID, payload.Category, payload.Difficulty)
		if err != nil {
			fail(err)
			return
		}
		send <- outboundMessage[any]{Type: "challenge", Payload: ch}

	case "challenge:accept":
		var payload challengeRefPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			fail(errInvalidPayload)
			return
		}
		ch, err := h.challenges.Accept(ctx, payload.ChallengeID, userID)
		if err != nil {
			fail(err)
			return
		}
		send <- outboundMessage[any]{Type: "challenge", Payload: ch}

	case "challenge:decline":
		var payload challengeRefPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			fail(errInvalidPayload)
			return
		}
		ch, err := h.challenges.Decline(ctx, payload.ChallengeID, userID)
		if err != nil {
			fail(err)
			return
		}
		send <- outboundMessage[any]{Type: "challenge", Payload: ch}

	case "challenge:get":
		var payload challengeRefPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			fail(errInvalidPayload)
			return
		}
		ch, err := h.challenges.Get(ctx, payload.ChallengeID, userID)
		if err != nil {
			fail(err)
			return
		}
		send <- outboundMessage[any]{Type: "challenge", Payload: ch}

	case "challenge:list":
		var payload listPayload
		if len(inbound.Payload) > 0 {
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				fail(errInvalidPayload)
				return
			}
		}
		list, err := h.challenges.List(ctx, userID, domain.ChallengeStatus(payload.Status))
		if err != nil {
			fail(err)
			return
		}
		send <- outboundMessage[any]{Type: "challenges", Payload: list}

	case "challenge:join":
		var payload challengeRefPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			fail(errInvalidPayload)
			return
		}
		// Participants only; the room carries score reveals.
		if _, err := h.challenges.Get(ctx, payload.ChallengeID, userID); err != nil {
			fail(err)
			return
		}
		room := app.ChallengeRoom(payload.ChallengeID)
		h.hub.JoinRoom(client, room)
		send <- outboundMessage[any]{Type: "joined", Payload: roomPayload{Room: room}}

	case "challenge:leave":
		var payload challengeRefPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			fail(errInvalidPayload)
			return
		}
		room := app.ChallengeRoom(payload.ChallengeID)
		h.hub.LeaveRoom(client, room)
		send <- outboundMessage[any]{Type: "left", Payload: roomPayload{Room: room}}

	case "quiz:generate":
		var payload generatePayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			fail(errInvalidPayload)
			return
		}
		view, err := h.quizzes.GenerateQuiz(ctx, payload.Category, payload.Difficulty, payload.QuestionCount)
		if err != nil {
			fail(err)
			return
		}
		send <- outboundMessage[any]{Type: "quiz", Payload: view}

	case "quiz:get":
		var payload quizRefPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			fail(errInvalidPayload)
			return
		}
		view, err := h.quizzes.GetQuizForPlay(ctx, payload.QuizID)
		if err != nil {
			fail(err)
			return
		}
		send <- outboundMessage[any]{Type: "quiz", Payload: view}

	case "quiz:submit":
		var payload app.SubmitRequest
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			fail(errInvalidPayload)
			return
		}
		attempt, err := h.attempts.SubmitQuizAnswers(ctx, userID, payload)
		if err != nil {
			fail(err)
			return
		}
		send <- outboundMessage[any]{Type: "attemptResult", Payload: attempt}

	default:
		fail(errUnsupportedType)
	}
}

var (
	errInvalidPayload  = errors.New("invalid payload")
	errUnsupportedType = errors.New("unsupported message type")
)

// errMessage keeps internal detail out of the socket while passing through
// domain and validation errors the client can act on.
func errMessage(err error) string {
	switch {
	case errors.Is(err, domain.ErrChallengeNotFound),
		errors.Is(err, domain.ErrQuizNotFound),
		errors.Is(err, domain.ErrAttemptNotFound),
		errors.Is(err, domain.ErrNotParticipant),
		errors.Is(err, domain.ErrNotChallenged),
		errors.Is(err, domain.ErrChallengeNotPending),
		errors.Is(err, domain.ErrAlreadyCompleted),
		errors.Is(err, domain.ErrSelfChallenge),
		errors.Is(err, domain.ErrGenerationUnavailable),
		errors.Is(err, errInvalidPayload),
		errors.Is(err, errUnsupportedType):
		return err.Error()
	}
	if domain.IsValidation(err) {
		return err.Error()
	}
	return "internal error"
}
