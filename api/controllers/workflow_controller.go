package controllers

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/moyoez/fitsnap-go/api/middlewares"
	"github.com/moyoez/fitsnap-go/api/models"
	"github.com/moyoez/fitsnap-go/render"
	"github.com/moyoez/fitsnap-go/tool"
	"github.com/moyoez/fitsnap-go/types"
	"github.com/moyoez/fitsnap-go/workflow"
)

// UserIdHeader carries the signed-in user id supplied by the auth layer of the UI.
const UserIdHeader = "X-User-Id"

// ResultResponse is the body of GET /sessions/:id/result.
type ResultResponse struct {
	SessionId       string         `json:"sessionId"`
	UploadId        string         `json:"uploadId,omitempty"`
	Message         string         `json:"message,omitempty"`
	MeasurementUnit string         `json:"measurementUnit"`
	Fields          []render.Field `json:"fields"`
}

// lookupWorkflow resolves :id or writes 404.
func lookupWorkflow(c *gin.Context) (*workflow.Workflow, bool) {
	sessionId := c.Param("id")
	wf, ok := models.GetSession(sessionId)
	if !ok {
		c.JSON(http.StatusNotFound, tool.FastReturnError("Session not found: "+sessionId))
		return nil, false
	}
	return wf, true
}

func lookupSlot(c *gin.Context) (workflow.Slot, bool) {
	slot, err := workflow.ParseSlot(c.Param("slot"))
	if err != nil {
		c.JSON(http.StatusBadRequest, tool.FastReturnError(err.Error()))
		return 0, false
	}
	return slot, true
}

func snapshotOf(c *gin.Context, wf *workflow.Workflow) workflow.Snapshot {
	snap := wf.Snapshot()
	if c.Query("previews") != "1" {
		snap = snap.WithoutPreviews()
	}
	return snap
}

// writeWorkflowError maps workflow errors to HTTP status codes.
func writeWorkflowError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, workflow.ErrUnknownSlot):
		c.JSON(http.StatusBadRequest, tool.FastReturnError(err.Error()))
	case errors.Is(err, workflow.ErrInvalidMedia):
		c.JSON(http.StatusUnsupportedMediaType, tool.FastReturnFailure(types.FailureInvalidMedia, err.Error()))
	case errors.Is(err, workflow.ErrMissingInput):
		c.JSON(http.StatusBadRequest, tool.FastReturnFailure(types.FailureMissingInput, workflow.MissingInputMessage))
	case errors.Is(err, workflow.ErrEmptyImage):
		c.JSON(http.StatusBadRequest, tool.FastReturnFailure(types.FailureInvalidMedia, err.Error()))
	case errors.Is(err, workflow.ErrStageGated), errors.Is(err, workflow.ErrSubmissionInFlight):
		c.JSON(http.StatusConflict, tool.FastReturnError(err.Error()))
	case errors.Is(err, workflow.ErrSessionClosed):
		c.JSON(http.StatusGone, tool.FastReturnError(err.Error()))
	default:
		c.JSON(http.StatusInternalServerError, tool.FastReturnError(err.Error()))
	}
}

// UserCreateSession opens a workflow in the INSTRUCTIONS stage.
// POST /api/self/v1/sessions
// Identity: X-User-Id header, then body userId, then configured identity, then the guest id.
func UserCreateSession(c *gin.Context) {
	var body types.CreateSessionRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, tool.FastReturnError("Invalid request body: "+err.Error()))
			return
		}
	}
	identity := workflow.ResolveIdentity(c.GetHeader(UserIdHeader), body.UserId, tool.GetCurrentConfig().Identity)
	wf := models.CreateSession(identity)
	c.JSON(http.StatusCreated, snapshotOf(c, wf))
}

// UserGetSession returns the session snapshot. Previews are included with ?previews=1.
// GET /api/self/v1/sessions/:id
func UserGetSession(c *gin.Context) {
	wf, ok := lookupWorkflow(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, snapshotOf(c, wf))
}

// UserCloseSession discards a workflow, e.g. when the user navigates away.
// DELETE /api/self/v1/sessions/:id
func UserCloseSession(c *gin.Context) {
	if !models.CloseSession(c.Param("id")) {
		c.JSON(http.StatusNotFound, tool.FastReturnError("Session not found: "+c.Param("id")))
		return
	}
	c.JSON(http.StatusOK, tool.FastReturnSuccess())
}

// UserAcknowledge moves past the photography guidelines.
// POST /api/self/v1/sessions/:id/acknowledge
func UserAcknowledge(c *gin.Context) {
	wf, ok := lookupWorkflow(c)
	if !ok {
		return
	}
	if err := wf.Acknowledge(); err != nil {
		writeWorkflowError(c, err)
		return
	}
	c.JSON(http.StatusOK, snapshotOf(c, wf))
}

// UserAcquireSlot stages a photo. Accepts multipart "file" (chooser, or drop with source=drop)
// or, from loopback only, JSON {"fileUrl": "file:///..."}. Decoding continues after 202 is returned.
// POST /api/self/v1/sessions/:id/slots/:slot
func UserAcquireSlot(c *gin.Context) {
	wf, ok := lookupWorkflow(c)
	if !ok {
		return
	}
	slot, ok := lookupSlot(c)
	if !ok {
		return
	}

	var candidate workflow.Candidate
	source := c.DefaultQuery("source", "chooser")
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		fileHeader, err := c.FormFile("file")
		if err != nil {
			c.JSON(http.StatusBadRequest, tool.FastReturnError("Missing form file: file"))
			return
		}
		if s := c.PostForm("source"); s != "" {
			source = s
		}
		file, err := fileHeader.Open()
		if err != nil {
			c.JSON(http.StatusInternalServerError, tool.FastReturnError("Failed to open upload: "+err.Error()))
			return
		}
		// The multipart temp file is removed when the handler returns, so the bytes are read now
		// and decoded later. One byte over the limit is kept so the decode can reject it.
		maxBytes := tool.GetCurrentConfig().MaxImageBytes
		if maxBytes <= 0 {
			maxBytes = tool.DefaultMaxImageBytes
		}
		data, err := io.ReadAll(io.LimitReader(file, maxBytes+1))
		_ = file.Close()
		if err != nil {
			c.JSON(http.StatusBadRequest, tool.FastReturnError("Failed to read upload: "+err.Error()))
			return
		}
		candidate = workflow.Candidate{
			FileName: fileHeader.Filename,
			MIMEType: fileHeader.Header.Get("Content-Type"),
			Reader:   bytes.NewReader(data),
		}
	} else {
		// A path is read from this machine's disk, so only a local client may name one,
		// whatever allowLan says.
		if !middlewares.IsLoopbackClient(c) {
			c.JSON(http.StatusForbidden, tool.FastReturnError("fileUrl intake is only accepted from this machine; upload the file instead"))
			return
		}
		var input types.FileInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, tool.FastReturnError("Invalid request body: "+err.Error()))
			return
		}
		// FileType is replaced by the sniffed content type.
		file, err := tool.OpenFileInput(&input)
		if err != nil {
			c.JSON(http.StatusBadRequest, tool.FastReturnError(err.Error()))
			return
		}
		source = "path"
		if input.FileType == "" {
			// Unrecognised content; keep Acquire from guessing by extension.
			input.FileType = "application/octet-stream"
		}
		candidate = workflow.Candidate{
			FileName: input.FileName,
			MIMEType: input.FileType,
			Reader:   file,
		}
	}

	tool.DefaultLogger.Debugf("[Intake] Session %s %s slot from %s: %s", wf.ID(), slot, source, candidate.FileName)
	if err := wf.Acquire(slot, candidate); err != nil {
		writeWorkflowError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, types.AcceptedResponse{
		SessionId:  wf.ID(),
		Slot:       slot.String(),
		Generation: wf.Generation(),
		Status:     "decoding",
	})
}

// UserClearSlot removes a staged photo.
// DELETE /api/self/v1/sessions/:id/slots/:slot
func UserClearSlot(c *gin.Context) {
	wf, ok := lookupWorkflow(c)
	if !ok {
		return
	}
	slot, ok := lookupSlot(c)
	if !ok {
		return
	}
	if err := wf.Clear(slot); err != nil {
		writeWorkflowError(c, err)
		return
	}
	c.JSON(http.StatusOK, snapshotOf(c, wf))
}

// UserGetSlotImage serves the staged bytes of a slot.
// GET /api/self/v1/sessions/:id/slots/:slot/image
func UserGetSlotImage(c *gin.Context) {
	wf, ok := lookupWorkflow(c)
	if !ok {
		return
	}
	slot, ok := lookupSlot(c)
	if !ok {
		return
	}
	img := wf.Image(slot)
	if img == nil {
		c.JSON(http.StatusNotFound, tool.FastReturnError("No image staged in "+slot.String()+" slot"))
		return
	}
	c.Header("Cache-Control", "no-store")
	c.Header("ETag", `"`+img.SHA256+`"`)
	c.Data(http.StatusOK, img.MIMEType, img.Data)
}

// UserSubmit sends both photos for analysis. The outcome arrives through notifications or
// a later GET of the session.
// POST /api/self/v1/sessions/:id/submit
func UserSubmit(c *gin.Context) {
	wf, ok := lookupWorkflow(c)
	if !ok {
		return
	}
	if err := wf.Submit(); err != nil {
		writeWorkflowError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, types.AcceptedResponse{
		SessionId:  wf.ID(),
		Generation: wf.Generation(),
		Status:     "in_flight",
	})
}

// UserReset discards all session data and returns to the guidelines.
// POST /api/self/v1/sessions/:id/reset
func UserReset(c *gin.Context) {
	wf, ok := lookupWorkflow(c)
	if !ok {
		return
	}
	if err := wf.Reset(); err != nil {
		writeWorkflowError(c, err)
		return
	}
	c.JSON(http.StatusOK, snapshotOf(c, wf))
}

// UserGetResult renders the measurement record once the session reached RESULT.
// GET /api/self/v1/sessions/:id/result
func UserGetResult(c *gin.Context) {
	wf, ok := lookupWorkflow(c)
	if !ok {
		return
	}
	snap := wf.Snapshot()
	result := snap.Submission.Result
	if snap.Stage != workflow.StageResult.String() || result == nil {
		c.JSON(http.StatusConflict, tool.FastReturnError("No result yet, session is in "+snap.Stage))
		return
	}
	unit := tool.GetCurrentConfig().MeasurementUnit
	c.JSON(http.StatusOK, ResultResponse{
		SessionId:       wf.ID(),
		UploadId:        result.UploadID,
		Message:         result.Message,
		MeasurementUnit: unit,
		Fields:          render.Fields(result.Measurements, unit),
	})
}
