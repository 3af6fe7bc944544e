package controllers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/rutno/clouddrive-go/api/notifyhub"
	"github.com/rutno/clouddrive-go/share"
	"github.com/rutno/clouddrive-go/tool"
	"github.com/rutno/clouddrive-go/types"
)

// ShareController dispatches share management and token-scoped access from
// one action-keyed endpoint.
type ShareController struct {
	engine  *share.Engine
	baseURL string
	hub     *notifyhub.Hub
}

// NewShareController creates the share controller. baseURL is prepended to
// share tokens when building public links.
func NewShareController(engine *share.Engine, baseURL string, hub *notifyhub.Hub) *ShareController {
	return &ShareController{engine: engine, baseURL: baseURL, hub: hub}
}

func (ctrl *ShareController) broadcast(eventType string, data map[string]any) {
	if ctrl.hub != nil {
		ctrl.hub.Broadcast(types.DriveEvent{Type: eventType, Data: data})
	}
}

var shareMutations = map[string]bool{
	"create_share":     true,
	"verify_password":  true,
	"add_file":         true,
	"create_directory": true,
	"delete_share":     true,
	"delete_file":      true,
	"delete_directory": true,
}

// HandleAction routes by the action query parameter.
func (ctrl *ShareController) HandleAction(c *gin.Context) {
	action := c.Query("action")
	if shareMutations[action] && c.Request.Method != http.MethodPost {
		c.JSON(http.StatusMethodNotAllowed, tool.FastReturnError("Action "+action+" requires POST"))
		return
	}

	switch action {
	case "create_share":
		ctrl.handleCreateShare(c)
	case "get_shares":
		c.JSON(http.StatusOK, tool.FastReturnSuccessWithData(map[string]any{"shares": ctrl.engine.Shares()}))
	case "get_share":
		ctrl.handleGetShare(c)
	case "verify_password":
		ctrl.handleVerifyPassword(c)
	case "get_files":
		ctrl.handleGetFiles(c)
	case "add_file":
		ctrl.handleAddFile(c)
	case "create_directory":
		ctrl.handleCreateDirectory(c)
	case "delete_share":
		ctrl.handleDeleteShare(c)
	case "delete_file":
		ctrl.handleDeleteFile(c)
	case "delete_directory":
		ctrl.handleDeleteDirectory(c)
	default:
		c.JSON(http.StatusBadRequest, tool.FastReturnError("Unknown action: "+action))
	}
}

func (ctrl *ShareController) fail(c *gin.Context, err error) {
	c.JSON(tool.StatusForError(err), tool.FastReturnError(err.Error()))
}

func (ctrl *ShareController) requestInfo(c *gin.Context) share.RequestInfo {
	return share.RequestInfo{
		IP:        c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
	}
}

// shareURL builds the public link for a token.
func (ctrl *ShareController) shareURL(token string) string {
	base := strings.TrimSuffix(ctrl.baseURL, "/")
	return base + "/share/" + token
}

func (ctrl *ShareController) handleCreateShare(c *gin.Context) {
	var req types.CreateShareRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, tool.FastReturnError("Invalid request body"))
		return
	}
	record, err := ctrl.engine.Create(req, ctrl.requestInfo(c))
	if err != nil {
		ctrl.fail(c, err)
		return
	}
	ctrl.broadcast("share_created", map[string]any{"share_id": record.ID, "name": record.Name})
	c.JSON(http.StatusOK, tool.FastReturnSuccessWithData(map[string]any{
		"share_id": record.ID,
		"token":    record.Token,
		"url":      ctrl.shareURL(record.Token),
	}))
}

// handleGetShare returns the public view of one share: permissions and
// whether a password gate applies, never the hash itself.
func (ctrl *ShareController) handleGetShare(c *gin.Context) {
	s, err := ctrl.engine.Resolve(c.Query("token"), ctrl.requestInfo(c))
	if err != nil {
		ctrl.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, tool.FastReturnSuccessWithData(map[string]any{
		"share": map[string]any{
			"name":                s.Name,
			"has_password":        s.PasswordHash != "",
			"root_directory":      s.RootDirectory,
			"root_directory_name": ctrl.engine.RootDirectoryName(s),
			"allow_delete":        s.AllowDelete,
			"allow_download":      s.AllowDownload,
			"allow_preview":       s.AllowPreview,
			"allow_upload":        s.AllowUpload,
			"created_at":          s.CreatedAt,
		},
	}))
}

func (ctrl *ShareController) handleVerifyPassword(c *gin.Context) {
	var req types.VerifyPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, tool.FastReturnError("Invalid request body"))
		return
	}
	ok, err := ctrl.engine.VerifyPassword(c.Query("token"), req.Password, ctrl.requestInfo(c))
	if err != nil {
		ctrl.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, tool.FastReturnSuccessWithData(map[string]any{"valid": ok}))
}

func (ctrl *ShareController) handleGetFiles(c *gin.Context) {
	files, dirs, err := ctrl.engine.ListFiles(c.Query("token"), c.Query("directory"), ctrl.requestInfo(c))
	if err != nil {
		ctrl.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, tool.FastReturnSuccessWithData(map[string]any{
		"files":       files,
		"directories": dirs,
	}))
}

func (ctrl *ShareController) handleAddFile(c *gin.Context) {
	var req types.ShareAddFileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, tool.FastReturnError("Invalid request body"))
		return
	}
	record, err := ctrl.engine.AddFile(c.Query("token"), req.FileID, req.Directory, ctrl.requestInfo(c))
	if err != nil {
		ctrl.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, tool.FastReturnSuccessWithData(map[string]any{"file": record}))
}

func (ctrl *ShareController) handleCreateDirectory(c *gin.Context) {
	var req types.CreateDirectoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, tool.FastReturnError("Invalid request body"))
		return
	}
	record, err := ctrl.engine.CreateDirectory(c.Query("token"), req.Name, req.Parent, ctrl.requestInfo(c))
	if err != nil {
		ctrl.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, tool.FastReturnSuccessWithData(map[string]any{"directory": record}))
}

func (ctrl *ShareController) handleDeleteShare(c *gin.Context) {
	var req struct {
		ShareID string `json:"share_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, tool.FastReturnError("Invalid request body"))
		return
	}
	if err := ctrl.engine.DeleteShare(req.ShareID); err != nil {
		ctrl.fail(c, err)
		return
	}
	ctrl.broadcast("share_deleted", map[string]any{"share_id": req.ShareID})
	c.JSON(http.StatusOK, tool.FastReturnSuccess())
}

func (ctrl *ShareController) handleDeleteFile(c *gin.Context) {
	var req types.ShareDeleteFileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, tool.FastReturnError("Invalid request body"))
		return
	}
	if err := ctrl.engine.DeleteFile(c.Query("token"), req.FileID, ctrl.requestInfo(c)); err != nil {
		ctrl.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, tool.FastReturnSuccess())
}

func (ctrl *ShareController) handleDeleteDirectory(c *gin.Context) {
	var req types.ShareDeleteDirectoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, tool.FastReturnError("Invalid request body"))
		return
	}
	if err := ctrl.engine.DeleteDirectory(c.Query("token"), req.DirectoryID, ctrl.requestInfo(c)); err != nil {
		ctrl.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, tool.FastReturnSuccess())
}
