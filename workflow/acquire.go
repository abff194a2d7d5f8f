package workflow

import (
	"bufio"
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"strings"
	"time"

	"github.com/moyoez/fitsnap-go/tool"
	"github.com/moyoez/fitsnap-go/types"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// sniffLen is how much of an undeclared candidate is inspected to guess its type.
const sniffLen = 3072

// Candidate is a file offered for a slot, from the chooser, a drop or a local path.
// Acquire takes ownership of Reader and closes it after decoding when it is an io.Closer.
type Candidate struct {
	FileName string
	MIMEType string // declared type; empty means sniff the content
	Reader   io.Reader
}

// IsImageMediaType reports whether mediaType is in the image/* family.
func IsImageMediaType(mediaType string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(mediaType)), "image/")
}

// Acquire validates candidate and starts decoding it into slot. The slot is written when the
// decode finishes, unless the session was reset, the slot cleared, or the stage left
// ACQUISITION in the meantime. A non-image candidate is refused with ErrInvalidMedia and
// the slot keeps its previous content.
func (w *Workflow) Acquire(slot Slot, candidate Candidate) error {
	if !slot.valid() {
		closeCandidate(candidate)
		return ErrUnknownSlot
	}
	if candidate.Reader == nil {
		return fmt.Errorf("%w: no content", ErrEmptyImage)
	}

	w.mu.Lock()
	if w.discarded {
		w.mu.Unlock()
		closeCandidate(candidate)
		return ErrSessionClosed
	}
	if w.session.stage != StageAcquisition {
		w.mu.Unlock()
		closeCandidate(candidate)
		return ErrStageGated
	}
	w.mu.Unlock()

	reader := candidate.Reader
	mediaType := strings.TrimSpace(candidate.MIMEType)
	if mediaType == "" {
		buffered := bufio.NewReaderSize(reader, sniffLen)
		head, _ := buffered.Peek(sniffLen)
		mediaType = tool.DeclaredMediaType("", head, candidate.FileName)
		reader = buffered
	}
	if !IsImageMediaType(mediaType) {
		closeCandidate(candidate)
		return w.rejectMedia(slot, candidate.FileName, mediaType)
	}

	w.mu.Lock()
	if w.discarded || w.session.stage != StageAcquisition {
		w.mu.Unlock()
		closeCandidate(candidate)
		return ErrStageGated
	}
	gen := w.generation
	epoch := w.session.slotEpochs[slot]
	w.pending.Add(1)
	w.mu.Unlock()

	tool.DefaultLogger.Debugf("[Acquire] Session %s decoding %s for %s slot (%s)", w.id, candidate.FileName, slot, mediaType)
	go func() {
		defer w.pending.Done()
		defer closeCandidate(candidate)
		img, err := decodeCandidate(reader, candidate.FileName, mediaType, w.maxImageBytes)
		w.completeDecode(gen, epoch, slot, img, err)
	}()
	return nil
}

func (w *Workflow) rejectMedia(slot Slot, fileName, mediaType string) error {
	if mediaType == "" {
		mediaType = "unknown type"
	}
	message := fmt.Sprintf("%s is not an image (%s)", displayName(fileName), mediaType)

	w.mu.Lock()
	w.session.err = &Failure{Kind: types.FailureInvalidMedia, Slot: slot.String(), Message: message}
	gen := w.generation
	w.mu.Unlock()

	tool.DefaultLogger.Warnf("[Acquire] Session %s rejected %s for %s slot: %s", w.id, displayName(fileName), slot, mediaType)
	w.emit(gen, types.NotifyTypeMediaRejected, "Invalid File", message, map[string]any{
		"slot":     slot.String(),
		"fileName": fileName,
		"mimeType": mediaType,
	})
	return fmt.Errorf("%w: %s", ErrInvalidMedia, mediaType)
}

func (w *Workflow) completeDecode(gen, epoch uint64, slot Slot, img *Image, decodeErr error) {
	w.mu.Lock()
	if gen != w.generation || epoch != w.session.slotEpochs[slot] || w.session.stage != StageAcquisition {
		w.mu.Unlock()
		tool.DefaultLogger.Debugf("[Acquire] Session %s dropped stale decode for %s slot", w.id, slot)
		return
	}
	if decodeErr != nil {
		w.session.err = &Failure{Kind: types.FailureInvalidMedia, Slot: slot.String(), Message: decodeErr.Error()}
		w.mu.Unlock()
		tool.DefaultLogger.Warnf("[Acquire] Session %s failed to decode %s slot: %v", w.id, slot, decodeErr)
		w.emit(gen, types.NotifyTypeDecodeFailed, "Could Not Read Image", decodeErr.Error(), map[string]any{
			"slot": slot.String(),
		})
		return
	}
	w.session.slots[slot] = img
	w.session.err = nil
	canSubmit := w.canSubmitLocked()
	w.mu.Unlock()

	tool.DefaultLogger.Infof("[Acquire] Session %s staged %s (%d bytes) in %s slot", w.id, img.FileName, len(img.Data), slot)
	w.emit(gen, types.NotifyTypeSlotUpdated, "Photo Ready", img.FileName, map[string]any{
		"slot":      slot.String(),
		"fileName":  img.FileName,
		"mimeType":  img.MIMEType,
		"size":      len(img.Data),
		"width":     img.Width,
		"height":    img.Height,
		"canSubmit": canSubmit,
	})
}

// Clear empties slot. A decode started before the clear will not repopulate it.
// Clearing during a submission does not affect the payload already dispatched.
func (w *Workflow) Clear(slot Slot) error {
	if !slot.valid() {
		return ErrUnknownSlot
	}
	w.mu.Lock()
	if w.discarded {
		w.mu.Unlock()
		return ErrSessionClosed
	}
	w.session.slots[slot] = nil
	w.session.slotEpochs[slot]++
	gen := w.generation
	w.mu.Unlock()

	tool.DefaultLogger.Debugf("[Clear] Session %s cleared %s slot", w.id, slot)
	w.emit(gen, types.NotifyTypeSlotCleared, "Photo Removed", slot.String(), map[string]any{
		"slot":      slot.String(),
		"canSubmit": false,
	})
	return nil
}

// decodeCandidate reads the whole image and builds its preview. Dimensions are probed
// best-effort: formats the decoders do not know are still accepted.
func decodeCandidate(r io.Reader, fileName, mediaType string, maxBytes int64) (*Image, error) {
	data, err := io.ReadAll(io.LimitReader(r, maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", displayName(fileName), err)
	}
	if int64(len(data)) > maxBytes {
		return nil, fmt.Errorf("%w: %s is larger than %d bytes", ErrImageTooLarge, displayName(fileName), maxBytes)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyImage, displayName(fileName))
	}

	img := &Image{
		FileName:   fileName,
		MIMEType:   mediaType,
		Data:       data,
		PreviewURI: "data:" + mediaType + ";base64," + base64.StdEncoding.EncodeToString(data),
		SHA256:     tool.SHA256Hex(data),
		AcquiredAt: time.Now(),
	}
	if cfg, _, err := image.DecodeConfig(bytes.NewReader(data)); err == nil {
		img.Width = cfg.Width
		img.Height = cfg.Height
	}
	return img, nil
}

func closeCandidate(c Candidate) {
	if closer, ok := c.Reader.(io.Closer); ok {
		if err := closer.Close(); err != nil {
			tool.DefaultLogger.Debugf("Failed to close candidate %s: %v", c.FileName, err)
		}
	}
}

func displayName(fileName string) string {
	if fileName == "" {
		return "file"
	}
	return fileName
}
