package controllers

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/rutno/clouddrive-go/api/notifyhub"
	"github.com/rutno/clouddrive-go/chunk"
	"github.com/rutno/clouddrive-go/drive"
	"github.com/rutno/clouddrive-go/sink"
	"github.com/rutno/clouddrive-go/tool"
	"github.com/rutno/clouddrive-go/types"
)

// DriveController dispatches every file, directory, trash and config
// operation from one action-keyed endpoint.
type DriveController struct {
	drive     *drive.Service
	assembler *chunk.Assembler
	hub       *notifyhub.Hub
}

// NewDriveController creates the drive controller.
func NewDriveController(driveSvc *drive.Service, assembler *chunk.Assembler, hub *notifyhub.Hub) *DriveController {
	return &DriveController{
		drive:     driveSvc,
		assembler: assembler,
		hub:       hub,
	}
}

// driveMutations lists the actions that require POST.
var driveMutations = map[string]bool{
	"upload":           true,
	"upload_chunk":     true,
	"merge_chunks":     true,
	"delete":           true,
	"restore":          true,
	"empty_trash":      true,
	"delete_permanent": true,
	"create_directory": true,
	"delete_directory": true,
	"move_file":        true,
	"rename_file":      true,
	"save_config":      true,
}

// HandleAction routes by the action query parameter.
func (ctrl *DriveController) HandleAction(c *gin.Context) {
	action := c.Query("action")
	if driveMutations[action] && c.Request.Method != http.MethodPost {
		c.JSON(http.StatusMethodNotAllowed, tool.FastReturnError("Action "+action+" requires POST"))
		return
	}

	switch action {
	case "upload":
		ctrl.handleUpload(c)
	case "upload_chunk":
		ctrl.handleUploadChunk(c)
	case "check_chunks":
		ctrl.handleCheckChunks(c)
	case "merge_chunks":
		ctrl.handleMergeChunks(c)
	case "list":
		ctrl.handleList(c)
	case "trash":
		c.JSON(http.StatusOK, tool.FastReturnSuccessWithData(map[string]any{"files": ctrl.drive.Trash()}))
	case "delete":
		ctrl.handleDelete(c)
	case "restore":
		ctrl.handleRestore(c)
	case "empty_trash":
		ctrl.handleEmptyTrash(c)
	case "delete_permanent":
		ctrl.handleDeletePermanent(c)
	case "get_link":
		ctrl.handleGetLink(c)
	case "create_directory":
		ctrl.handleCreateDirectory(c)
	case "get_directories":
		c.JSON(http.StatusOK, tool.FastReturnSuccessWithData(map[string]any{"directories": ctrl.drive.Directories()}))
	case "delete_directory":
		ctrl.handleDeleteDirectory(c)
	case "move_file":
		ctrl.handleMoveFile(c)
	case "rename_file":
		ctrl.handleRenameFile(c)
	case "get_files_by_directory":
		ctrl.handleFilesByDirectory(c)
	case "get_config":
		ctrl.handleGetConfig(c)
	case "save_config":
		ctrl.handleSaveConfig(c)
	case "get_storage":
		ctrl.handleGetStorage(c)
	default:
		c.JSON(http.StatusBadRequest, tool.FastReturnError("Unknown action: "+action))
	}
}

func (ctrl *DriveController) fail(c *gin.Context, err error) {
	c.JSON(tool.StatusForError(err), tool.FastReturnError(err.Error()))
}

func (ctrl *DriveController) broadcast(eventType string, data map[string]any) {
	if ctrl.hub != nil {
		ctrl.hub.Broadcast(types.DriveEvent{Type: eventType, Data: data})
	}
}

// finalizeBlob pushes the staged blob to the configured sink and registers
// the metadata record. Sink failures fall back to the local copy; the upload
// itself still succeeds.
func (ctrl *DriveController) finalizeBlob(ctx context.Context, localPath, localName, originalName string, size int64, directory string) (types.FileRecord, error) {
	var downloadURL, sid string
	if s := sink.FromConfig(tool.GetCurrentConfig().Storage); s != nil {
		sinkCtx, cancel := context.WithTimeout(ctx, tool.DefaultTimeout)
		result, err := s.Store(sinkCtx, localPath, originalName)
		cancel()
		if err != nil {
			tool.DefaultLogger.Warnf("Sink %s failed, keeping local copy of %s: %v", s.Name(), originalName, err)
		} else {
			downloadURL = result.URL
			sid = result.SID
		}
	}

	record := drive.NewFileRecord(originalName, size, localName, downloadURL, sid)
	record.Directory = directory
	if err := ctrl.drive.AddFile(record); err != nil {
		return types.FileRecord{}, err
	}
	ctrl.broadcast("file_uploaded", map[string]any{"file": record})
	return record, nil
}

// handleList returns all active files, their total byte count and, best
// effort, the disk usage of the blob volume.
func (ctrl *DriveController) handleList(c *gin.Context) {
	files := ctrl.drive.List()
	var total int64
	for _, f := range files {
		total += f.Size
	}
	data := map[string]any{
		"files":                files,
		"total_size":           total,
		"total_size_formatted": tool.FormatFileSize(total),
	}
	if info, err := tool.DiskStorageInfo(ctrl.drive.BlobDir()); err == nil {
		data["storage"] = info
	}
	c.JSON(http.StatusOK, tool.FastReturnSuccessWithData(data))
}

func (ctrl *DriveController) handleUpload(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, tool.FastReturnError("Missing file field"))
		return
	}
	directory := c.PostForm("directory")

	localName := tool.StagedBlobName(fileHeader.Filename)
	localPath := filepath.Join(ctrl.drive.BlobDir(), localName)
	if err := os.MkdirAll(ctrl.drive.BlobDir(), 0o755); err != nil {
		ctrl.fail(c, err)
		return
	}
	if err := c.SaveUploadedFile(fileHeader, localPath); err != nil {
		tool.DefaultLogger.Errorf("Failed to stage uploaded file: %v", err)
		c.JSON(http.StatusInternalServerError, tool.FastReturnError("Failed to save uploaded file"))
		return
	}

	record, err := ctrl.finalizeBlob(c.Request.Context(), localPath, localName, fileHeader.Filename, fileHeader.Size, directory)
	if err != nil {
		ctrl.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, tool.FastReturnSuccessWithData(map[string]any{"file": record}))
}

func (ctrl *DriveController) handleUploadChunk(c *gin.Context) {
	uploadID := c.PostForm("file_id")
	index, err := strconv.Atoi(c.PostForm("chunk_index"))
	if err != nil {
		c.JSON(http.StatusBadRequest, tool.FastReturnError("Invalid chunk_index"))
		return
	}
	totalChunks, err := strconv.Atoi(c.PostForm("total_chunks"))
	if err != nil {
		c.JSON(http.StatusBadRequest, tool.FastReturnError("Invalid total_chunks"))
		return
	}
	fileName := c.PostForm("file_name")
	fileSize, _ := strconv.ParseInt(c.PostForm("file_size"), 10, 64)

	chunkHeader, err := c.FormFile("chunk")
	if err != nil {
		c.JSON(http.StatusBadRequest, tool.FastReturnError("Missing chunk field"))
		return
	}
	src, err := chunkHeader.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, tool.FastReturnError("Failed to read chunk"))
		return
	}
	defer src.Close()

	if err := ctrl.assembler.RegisterChunk(uploadID, index, totalChunks, fileName, fileSize, src); err != nil {
		ctrl.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, tool.FastReturnSuccessWithData(map[string]any{
		"file_id":     uploadID,
		"chunk_index": index,
	}))
}

func (ctrl *DriveController) handleCheckChunks(c *gin.Context) {
	uploadID := c.Query("file_id")
	if uploadID == "" {
		c.JSON(http.StatusBadRequest, tool.FastReturnError("Missing file_id"))
		return
	}
	c.JSON(http.StatusOK, tool.FastReturnSuccessWithData(map[string]any{
		"uploaded_chunks": ctrl.assembler.ReceivedIndices(uploadID),
	}))
}

func (ctrl *DriveController) handleMergeChunks(c *gin.Context) {
	var req types.MergeChunksRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, tool.FastReturnError("Invalid request body"))
		return
	}
	result, err := ctrl.assembler.Merge(req.FileID, req.FileName, req.FileSize, req.TotalChunks, ctrl.drive.BlobDir())
	if err != nil {
		ctrl.fail(c, err)
		return
	}

	record, err := ctrl.finalizeBlob(c.Request.Context(), result.LocalPath, result.LocalName, req.FileName, result.Size, req.Directory)
	if err != nil {
		ctrl.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, tool.FastReturnSuccessWithData(map[string]any{"file": record}))
}

func (ctrl *DriveController) handleDelete(c *gin.Context) {
	var req types.FileIDRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, tool.FastReturnError("Invalid request body"))
		return
	}
	if err := ctrl.drive.SoftDelete(req.ID); err != nil {
		ctrl.fail(c, err)
		return
	}
	ctrl.broadcast("file_deleted", map[string]any{"file_id": req.ID})
	c.JSON(http.StatusOK, tool.FastReturnSuccess())
}

func (ctrl *DriveController) handleRestore(c *gin.Context) {
	var req types.FileIDRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, tool.FastReturnError("Invalid request body"))
		return
	}
	if err := ctrl.drive.Restore(req.ID); err != nil {
		ctrl.fail(c, err)
		return
	}
	ctrl.broadcast("file_restored", map[string]any{"file_id": req.ID})
	c.JSON(http.StatusOK, tool.FastReturnSuccess())
}

func (ctrl *DriveController) handleEmptyTrash(c *gin.Context) {
	if err := ctrl.drive.EmptyTrash(); err != nil {
		ctrl.fail(c, err)
		return
	}
	ctrl.broadcast("trash_emptied", nil)
	c.JSON(http.StatusOK, tool.FastReturnSuccess())
}

func (ctrl *DriveController) handleDeletePermanent(c *gin.Context) {
	var req types.DeletePermanentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, tool.FastReturnError("Invalid request body"))
		return
	}
	if err := ctrl.drive.DeletePermanent(drive.Target{ID: req.ID, IsDirectory: req.IsDirectory}); err != nil {
		ctrl.fail(c, err)
		return
	}
	ctrl.broadcast("file_purged", map[string]any{"id": req.ID, "is_directory": req.IsDirectory})
	c.JSON(http.StatusOK, tool.FastReturnSuccess())
}

func (ctrl *DriveController) handleGetLink(c *gin.Context) {
	fileID := c.Query("id")
	if fileID == "" {
		var req types.FileIDRequest
		if err := c.ShouldBindJSON(&req); err == nil {
			fileID = req.ID
		}
	}
	link, err := ctrl.drive.GetLink(fileID)
	if err != nil {
		ctrl.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, tool.FastReturnSuccessWithData(map[string]any{"url": link}))
}

func (ctrl *DriveController) handleCreateDirectory(c *gin.Context) {
	var req types.CreateDirectoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, tool.FastReturnError("Invalid request body"))
		return
	}
	record, err := ctrl.drive.CreateDirectory(req.Name, req.Parent)
	if err != nil {
		ctrl.fail(c, err)
		return
	}
	ctrl.broadcast("directory_created", map[string]any{"directory": record})
	c.JSON(http.StatusOK, tool.FastReturnSuccessWithData(map[string]any{"directory": record}))
}

func (ctrl *DriveController) handleDeleteDirectory(c *gin.Context) {
	var req types.DirectoryIDRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, tool.FastReturnError("Invalid request body"))
		return
	}
	if err := ctrl.drive.DeleteDirectory(req.ID); err != nil {
		ctrl.fail(c, err)
		return
	}
	ctrl.broadcast("directory_deleted", map[string]any{"directory_id": req.ID})
	c.JSON(http.StatusOK, tool.FastReturnSuccess())
}

func (ctrl *DriveController) handleMoveFile(c *gin.Context) {
	var req types.MoveFileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, tool.FastReturnError("Invalid request body"))
		return
	}
	moved, err := ctrl.drive.MoveFile(req.FileID, req.Directory)
	if err != nil {
		ctrl.fail(c, err)
		return
	}
	ctrl.broadcast("file_moved", map[string]any{"file": moved})
	c.JSON(http.StatusOK, tool.FastReturnSuccessWithData(map[string]any{"file": moved}))
}

func (ctrl *DriveController) handleRenameFile(c *gin.Context) {
	var req types.RenameFileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, tool.FastReturnError("Invalid request body"))
		return
	}
	renamed, err := ctrl.drive.RenameFile(req.FileID, req.NewName)
	if err != nil {
		ctrl.fail(c, err)
		return
	}
	ctrl.broadcast("file_renamed", map[string]any{"file": renamed})
	c.JSON(http.StatusOK, tool.FastReturnSuccessWithData(map[string]any{"file": renamed}))
}

func (ctrl *DriveController) handleFilesByDirectory(c *gin.Context) {
	files, dirs := ctrl.drive.ListChildren(c.Query("directory"))
	c.JSON(http.StatusOK, tool.FastReturnSuccessWithData(map[string]any{
		"files":       files,
		"directories": dirs,
	}))
}

// handleGetConfig returns the storage section with secrets blanked.
func (ctrl *DriveController) handleGetConfig(c *gin.Context) {
	storage := tool.GetCurrentConfig().Storage
	storage.Cloud.SecretKey = ""
	storage.FTP.Password = ""
	storage.S3.SecretKey = ""
	c.JSON(http.StatusOK, tool.FastReturnSuccessWithData(map[string]any{"config": storage}))
}

func (ctrl *DriveController) handleSaveConfig(c *gin.Context) {
	var req types.SaveConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, tool.FastReturnError("Invalid request body"))
		return
	}
	switch req.Config.Type {
	case "local", "cloud", "ftp", "s3":
	default:
		c.JSON(http.StatusBadRequest, tool.FastReturnError("Unknown storage type: "+req.Config.Type))
		return
	}
	if err := tool.UpdateStorageConfig(req.Config); err != nil {
		tool.DefaultLogger.Errorf("Failed to persist storage config: %v", err)
		c.JSON(http.StatusInternalServerError, tool.FastReturnError("Failed to save config"))
		return
	}
	c.JSON(http.StatusOK, tool.FastReturnSuccess())
}

func (ctrl *DriveController) handleGetStorage(c *gin.Context) {
	info, err := tool.DiskStorageInfo(ctrl.drive.BlobDir())
	if err != nil {
		tool.DefaultLogger.Errorf("Failed to read disk usage: %v", err)
		c.JSON(http.StatusInternalServerError, tool.FastReturnError("Failed to read storage info"))
		return
	}
	c.JSON(http.StatusOK, tool.FastReturnSuccessWithData(map[string]any{"storage": info}))
}
