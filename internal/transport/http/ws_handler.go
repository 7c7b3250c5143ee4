package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/lifelinezhang/frequency-smallgame-sub000/internal/app"
	"github.com/lifelinezhang/frequency-smallgame-sub000/internal/domain"
)

type WSHandler struct {
	service  *app.QuizService
	upgrader websocket.Upgrader
}

func NewWSHandler(service *app.QuizService) *WSHandler {
	return &WSHandler{
		service: service,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type startPayload struct {
	SetID string `json:"setId"`
}

type answerPayload struct {
	SelectedIndex int `json:"selectedIndex"`
}

type peerReportPayload struct {
	PeerID string `json:"peerId"`
}

type invitePayload struct {
	InviterID string `json:"inviterId"`
}

type tabPayload struct {
	Tab string `json:"tab"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

type reportPayload struct {
	Sections []domain.ReportSection `json:"sections"`
	Tab      int                    `json:"tab"`
}

type keysPayload struct {
	Balance int  `json:"balance"`
	Awarded bool `json:"awarded,omitempty"`
}

type tabFlagPayload struct {
	Tab   string `json:"tab"`
	Stale bool   `json:"stale"`
}

// ServeWS upgrades HTTP requests to websockets and wires them into the quiz use cases.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	openID := r.URL.Query().Get("openId")
	nickname := r.URL.Query().Get("name")
	avatar := r.URL.Query().Get("avatar")
	if openID == "" || nickname == "" {
		http.Error(w, "missing openId or name", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	if err := h.service.Register(r.Context(), domain.PlayerProfile{
		OpenID:    openID,
		Nickname:  nickname,
		AvatarURL: avatar,
	}); err != nil {
		_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: err.Error()}})
		return
	}

	send := make(chan outboundMessage[any], 16)
	writerDone := make(chan struct{})

	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				log.Printf("ws write error: %v", err)
				return
			}
		}
	}()

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		h.dispatch(r, openID, inbound, send)
	}

	close(send)
	<-writerDone
}

func (h *WSHandler) dispatch(r *http.Request, openID string, inbound inboundMessage, send chan<- outboundMessage[any]) {
	ctx := r.Context()
	fail := func(msg string) {
		send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: msg}}
	}

	switch inbound.Type {
	case "start":
		var payload startPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			fail("invalid start payload")
			return
		}
		set, err := h.service.StartQuiz(ctx, openID, payload.SetID)
		if err != nil {
			fail(err.Error())
			return
		}
		send <- outboundMessage[any]{Type: "started", Payload: set}

	case "answer":
		var payload answerPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			fail("invalid answer payload")
			return
		}
		progress, err := h.service.RecordAnswer(ctx, openID, payload.SelectedIndex)
		if err != nil && !errors.Is(err, domain.ErrSubmitFailed) {
			fail(err.Error())
			return
		}
		// A failed submit keeps the local record; report the answer and the
		// retry-worthy failure both.
		send <- outboundMessage[any]{Type: "answerResult", Payload: progress}
		if err != nil {
			fail(err.Error())
		}
		if !progress.Completed {
			if err := h.service.Advance(openID); err != nil {
				fail(err.Error())
			}
		}

	case "ranking":
		results, err := h.service.FriendRanking(ctx, openID)
		if err != nil {
			fail(err.Error())
			return
		}
		send <- outboundMessage[any]{Type: "ranking", Payload: results}

	case "report":
		rep, err := h.service.MyReport(ctx, openID)
		if err != nil {
			fail(err.Error())
			return
		}
		send <- outboundMessage[any]{Type: "report", Payload: reportPayload{Sections: rep.Sections, Tab: rep.ClampTab(0)}}

	case "peerReport":
		var payload peerReportPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			fail("invalid peerReport payload")
			return
		}
		rep, err := h.service.PeerReport(ctx, openID, payload.PeerID)
		if err != nil {
			fail(err.Error())
			return
		}
		send <- outboundMessage[any]{Type: "peerReport", Payload: reportPayload{Sections: rep.Sections, Tab: rep.ClampTab(0)}}

	case "inviteAccepted":
		var payload invitePayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			fail("invalid invite payload")
			return
		}
		balance, awarded, err := h.service.InviteAccepted(ctx, payload.InviterID, openID)
		if err != nil {
			fail(err.Error())
			return
		}
		send <- outboundMessage[any]{Type: "keys", Payload: keysPayload{Balance: balance, Awarded: awarded}}

	case "keys":
		balance, err := h.service.KeyBalance(ctx, openID)
		if err != nil {
			fail(err.Error())
			return
		}
		send <- outboundMessage[any]{Type: "keys", Payload: keysPayload{Balance: balance}}

	case "tabCheck":
		var payload tabPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			fail("invalid tabCheck payload")
			return
		}
		stale := h.service.ConsumeTabFlag(openID, app.Tab(payload.Tab))
		send <- outboundMessage[any]{Type: "tabFlag", Payload: tabFlagPayload{Tab: payload.Tab, Stale: stale}}

	default:
		fail("unsupported message type")
	}
}
