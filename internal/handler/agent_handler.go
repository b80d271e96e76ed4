package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ashwinyue/next-ai/internal/agentloop"
	"github.com/ashwinyue/next-ai/internal/chatmodel"
	"github.com/ashwinyue/next-ai/internal/config"
	"github.com/ashwinyue/next-ai/internal/memory"
	"github.com/ashwinyue/next-ai/internal/model"
	"github.com/ashwinyue/next-ai/internal/modelrouter"
	"github.com/ashwinyue/next-ai/internal/session"
	"github.com/ashwinyue/next-ai/internal/store"
	"github.com/ashwinyue/next-ai/internal/streamadapter"
	"github.com/ashwinyue/next-ai/internal/tools"
)

// AgentHandler serves the streaming turn endpoint plus the three plain
// history/listing/deletion operations over the Conversation Store.
type AgentHandler struct {
	cfg        *config.Config
	store      *store.Store
	cache      *memory.Cache
	chatModels *chatmodel.Set
	registry   *tools.Registry
	sessions   *session.Manager
}

// NewAgentHandler wires the composition root's C1-C9 pieces into the HTTP
// surface.
func NewAgentHandler(cfg *config.Config, s *store.Store, cache *memory.Cache, chatModels *chatmodel.Set, registry *tools.Registry, sessions *session.Manager) *AgentHandler {
	return &AgentHandler{cfg: cfg, store: s, cache: cache, chatModels: chatModels, registry: registry, sessions: sessions}
}

// streamRequest is the POST /agent/stream body.
type streamRequest struct {
	Message        string `json:"message" binding:"required"`
	ConversationID string `json:"conversationId,omitempty"`
}

// StreamAgent implements POST /agent/stream: route, load memory, run the
// agent loop to a final text, persist the turn, then stream the text back
// segmented over SSE.
func (h *AgentHandler) StreamAgent(c *gin.Context) {
	var req streamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, Response{Code: -1, Message: err.Error()})
		return
	}

	userID := getUserID(c)
	conversationID := req.ConversationID
	if conversationID == "" {
		conversationID = store.NewConversationID(store.AgentPrefix, uuid.NewString)
	}

	decision := modelrouter.Route(h.cfg.Router, req.Message)
	provider := h.chatModels.ByTag(decision.ProviderTag)

	win, err := memory.Load(c.Request.Context(), h.store, h.cache, conversationID, h.cfg.Agent.ContextWindow)
	if err != nil {
		errorResponse(c, err)
		return
	}

	sink := make(chan tools.CallRecord, 32)
	var sources []model.Source
	toolSet, err := h.registry.Build(sink, &sources)
	if err != nil {
		close(sink)
		errorResponse(c, err)
		return
	}

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.Header().Set("Transfer-Encoding", "chunked")

	// The agent loop runs on a context detached from the client connection:
	// a client disconnect must not interrupt an in-flight model call, only
	// stop further SSE delivery once the (already-persisted) result is
	// ready. loopCtx is still cancellable, so a cooperative cancel (e.g. an
	// explicit stop request) can still abort the loop.
	loopCtx, cancelLoop := context.WithCancel(context.Background())
	defer cancelLoop()
	unregister := h.sessions.Register(loopCtx, conversationID, cancelLoop)
	defer unregister()

	var allRecords []tools.CallRecord
	recordsDone := make(chan struct{})
	go func() {
		for r := range sink {
			allRecords = append(allRecords, r)
		}
		close(recordsDone)
	}()

	loop := agentloop.New(toolSet, h.cfg.Agent.StepCap)
	result, runErr := loop.Run(loopCtx, provider.Model, win, req.Message, &sources)
	close(sink)
	<-recordsDone

	// Only terminal records (COMPLETED/FAILED) are reported as this turn's
	// observable history; the STARTED half of each pair is bookkeeping for
	// duration measurement, not a distinct invocation.
	history := make([]tools.CallRecord, 0, len(allRecords))
	for _, r := range allRecords {
		if r.Status != tools.Started {
			history = append(history, r)
		}
	}

	eventCh := make(chan streamadapter.Event)

	if runErr != nil {
		go func() {
			defer close(eventCh)
			streamadapter.StreamError(eventCh, runErr)
		}()
		writeSSE(c, eventCh)
		return
	}

	userMsg := &model.Message{ConversationID: conversationID, UserID: &userID, Role: model.RoleUser, Content: req.Message}
	assistantMsg := &model.Message{ConversationID: conversationID, UserID: &userID, Role: model.RoleAssistant, Content: result.Text, Sources: model.Sources(result.Sources)}
	if err := h.store.AppendTurn(loopCtx, userMsg, assistantMsg); err != nil {
		go func() {
			defer close(eventCh)
			streamadapter.StreamError(eventCh, err)
		}()
		writeSSE(c, eventCh)
		return
	}
	h.cache.Invalidate(loopCtx, conversationID)

	go func() {
		defer close(eventCh)
		streamadapter.Stream(c.Request.Context(), eventCh, result.Text, conversationID, history)
	}()
	writeSSE(c, eventCh)
}

// writeSSE drains eventCh to the client as named SSE events, stopping early
// if the client disconnects.
func writeSSE(c *gin.Context, eventCh <-chan streamadapter.Event) {
	for event := range eventCh {
		select {
		case <-c.Request.Context().Done():
			return
		default:
		}

		switch event.Type {
		case streamadapter.EventSegment:
			c.SSEvent(string(streamadapter.EventSegment), event.Segment)
		case streamadapter.EventHistory:
			c.SSEvent(string(streamadapter.EventHistory), event.History)
		case streamadapter.EventDone:
			c.SSEvent(string(streamadapter.EventDone), event.ConversationID)
		case streamadapter.EventError:
			c.SSEvent(string(streamadapter.EventError), event.Err.Error())
		}
		c.Writer.Flush()
	}
}

// GetHistory implements GET /agent/history/:conversationId.
func (h *AgentHandler) GetHistory(c *gin.Context) {
	conversationID := c.Param("conversationId")

	msgs, err := h.store.History(c.Request.Context(), conversationID)
	if err != nil {
		errorResponse(c, err)
		return
	}
	success(c, msgs)
}

// ListConversations implements GET /agent/conversations: distinct
// agent-prefixed conversation ids for the authenticated user, newest first.
func (h *AgentHandler) ListConversations(c *gin.Context) {
	userID := getUserID(c)

	ids, err := h.store.ConversationsFor(c.Request.Context(), userID, store.AgentPrefix)
	if err != nil {
		errorResponse(c, err)
		return
	}
	success(c, ids)
}

// DeleteConversation implements DELETE /agent/conversations/:conversationId.
func (h *AgentHandler) DeleteConversation(c *gin.Context) {
	conversationID := c.Param("conversationId")

	if err := h.store.Delete(c.Request.Context(), conversationID); err != nil {
		errorResponse(c, err)
		return
	}
	h.cache.Invalidate(c.Request.Context(), conversationID)
	c.Status(http.StatusNoContent)
}
