package controllers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/skip2/go-qrcode"

	"github.com/rutno/clouddrive-go/share"
	"github.com/rutno/clouddrive-go/tool"
)

const (
	defaultQRSize = 200
	maxQRSize     = 512
)

// QRCodeController renders share links (or arbitrary content) as PNG QR
// codes. GET ?token=<share-token>&size=200x200, or ?data=<content> for raw
// content.
type QRCodeController struct {
	engine  *share.Engine
	baseURL string
}

// NewQRCodeController creates the QR code controller.
func NewQRCodeController(engine *share.Engine, baseURL string) *QRCodeController {
	return &QRCodeController{engine: engine, baseURL: baseURL}
}

func (ctrl *QRCodeController) HandleQRCode(c *gin.Context) {
	data := c.Query("data")
	if token := c.Query("token"); token != "" {
		s, err := ctrl.engine.Resolve(token, share.RequestInfo{IP: c.ClientIP(), UserAgent: c.Request.UserAgent()})
		if err != nil {
			c.JSON(tool.StatusForError(err), tool.FastReturnError(err.Error()))
			return
		}
		data = strings.TrimSuffix(ctrl.baseURL, "/") + "/share/" + s.Token
	}
	if data == "" {
		c.JSON(http.StatusBadRequest, tool.FastReturnError("Missing required parameter: token or data"))
		return
	}

	size := parseSize(c.Query("size"))
	if size <= 0 {
		size = defaultQRSize
	}
	if size > maxQRSize {
		size = maxQRSize
	}

	png, err := qrcode.Encode(data, qrcode.Medium, size)
	if err != nil {
		c.JSON(http.StatusInternalServerError, tool.FastReturnError("Failed to encode QR code: "+err.Error()))
		return
	}

	c.Data(http.StatusOK, "image/png", png)
}

// parseSize parses size from "200x200" or "200" and returns the pixel dimension.
func parseSize(s string) int {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	if idx := strings.Index(s, "x"); idx > 0 {
		s = strings.TrimSpace(s[:idx])
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0
	}
	return n
}
