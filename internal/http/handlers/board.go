package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/queueflow-backend/internal/http/response"
	"github.com/yungbote/queueflow-backend/internal/observability"
	"github.com/yungbote/queueflow-backend/internal/platform/ctxutil"
	"github.com/yungbote/queueflow-backend/internal/platform/logger"
	"github.com/yungbote/queueflow-backend/internal/realtime"
	"github.com/yungbote/queueflow-backend/internal/services"
)

type BoardHandler struct {
	log          *logger.Logger
	hub          *realtime.SSEHub
	boardService services.BoardService
}

func NewBoardHandler(log *logger.Logger, hub *realtime.SSEHub, boardService services.BoardService) *BoardHandler {
	return &BoardHandler{
		log:          log.With("handler", "BoardHandler"),
		hub:          hub,
		boardService: boardService,
	}
}

// GET /api/board
func (bh *BoardHandler) Snapshot(c *gin.Context) {
	snap, err := bh.boardService.Snapshot(c.Request.Context())
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.RespondOK(c, snap)
}

// GET /api/board/stream
func (bh *BoardHandler) Stream(c *gin.Context) {
	rd := ctxutil.GetRequestData(c.Request.Context())
	if rd == nil || rd.UserID == uuid.Nil {
		response.RespondError(c, http.StatusUnauthorized, "unauthorized", errors.New("not authenticated"))
		return
	}
	if rd.BranchID == uuid.Nil {
		response.RespondError(c, http.StatusForbidden, "no_branch", errors.New("caller is not scoped to a branch"))
		return
	}

	client := bh.hub.NewSSEClient(rd.UserID, rd.BranchID)
	bh.hub.AddChannel(client, realtime.BranchChannel(rd.BranchID))
	observability.SSEClients.Inc()
	bh.log.Debug("board stream open", "client_id", client.ID, "branch_id", rd.BranchID)

	defer func() {
		bh.hub.CloseClient(client)
		observability.SSEClients.Dec()
		bh.log.Debug("board stream closed", "client_id", client.ID)
	}()
	bh.hub.ServeHTTP(c.Writer, c.Request, client)
}
