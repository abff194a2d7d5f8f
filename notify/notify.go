package notify

import (
	"encoding/binary"
	"fmt"
	"io"
	"net"
	"os"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/moyoez/fitsnap-go/tool"
	"github.com/moyoez/fitsnap-go/types"
)

// NotifyWriteChunkSize is the chunk size when writing payload to Unix socket (avoid large single write).
const NotifyWriteChunkSize = 32 * 1024 // 32KB

var (
	// DefaultUnixSocketPath is the default Unix socket path for IPC with a desktop shell
	DefaultUnixSocketPath = "/tmp/fitsnap-notify.sock"
	// UnixSocketTimeout is the timeout for Unix socket operations
	UnixSocketTimeout = 3 * time.Second
	UseNotify         = true

	optMu           sync.RWMutex
	socketPath      string
	notifyWSEnabled bool
	hub             types.NotifyHub
)

// SetUseNotify sets whether to use the unix socket
func SetUseNotify(use bool) {
	UseNotify = use
}

// SetSocketPath overrides DefaultUnixSocketPath. Empty keeps the default.
func SetSocketPath(path string) {
	optMu.Lock()
	defer optMu.Unlock()
	socketPath = path
}

// SetHub installs the WebSocket hub and enables or disables broadcast to it.
func SetHub(h types.NotifyHub, enabled bool) {
	optMu.Lock()
	defer optMu.Unlock()
	hub = h
	notifyWSEnabled = enabled
}

// NotifyWSEnabled reports whether notifications are pushed to WebSocket clients.
func NotifyWSEnabled() bool {
	optMu.RLock()
	defer optMu.RUnlock()
	return notifyWSEnabled && hub != nil
}

// Dispatch fans a workflow notification out to WebSocket clients and the unix socket.
// It never blocks on the socket.
func Dispatch(notification *types.Notification) {
	if notification == nil {
		return
	}
	optMu.RLock()
	h, wsEnabled, path := hub, notifyWSEnabled, socketPath
	optMu.RUnlock()

	if wsEnabled && h != nil {
		h.Broadcast(notification)
	}
	if UseNotify {
		go func() {
			if err := SendNotification(notification, path); err != nil {
				tool.DefaultLogger.Debugf("[Notify] %s not delivered to unix socket: %v", notification.Type, err)
			}
		}()
	}
}

// SendNotification sends notification via Unix Domain Socket
func SendNotification(notification *types.Notification, socketPath string) error {
	if !UseNotify {
		return nil
	}
	if socketPath == "" {
		socketPath = DefaultUnixSocketPath
	}

	if _, err := os.Stat(socketPath); os.IsNotExist(err) {
		return fmt.Errorf("unix socket not found: %s", socketPath)
	}

	var payload []byte
	var err error
	if notification != nil {
		payload, err = sonic.Marshal(notification)
		if err != nil {
			return fmt.Errorf("failed to serialize notification data: %v", err)
		}
	} else {
		payload = []byte("{}")
	}

	// Reject payload over 32KB
	if len(payload) > NotifyWriteChunkSize {
		return fmt.Errorf("notification payload too large: %d bytes (max %d)", len(payload), NotifyWriteChunkSize)
	}

	conn, err := net.DialTimeout("unix", socketPath, UnixSocketTimeout)
	if err != nil {
		return fmt.Errorf("failed to connect to Unix socket %s: %v", socketPath, err)
	}
	defer func() {
		if err := conn.Close(); err != nil {
			tool.DefaultLogger.Errorf("Failed to close Unix socket connection: %v", err)
		}
	}()

	if err := conn.SetWriteDeadline(time.Now().Add(UnixSocketTimeout)); err != nil {
		tool.DefaultLogger.Errorf("Failed to set write deadline: %v", err)
	}

	// Send length prefix (4 bytes, little-endian uint32) then payload in chunks
	lengthBuf := make([]byte, 4)
	binary.LittleEndian.PutUint32(lengthBuf, uint32(len(payload)))
	if _, err := conn.Write(lengthBuf); err != nil {
		return fmt.Errorf("failed to write length to Unix socket: %v", err)
	}
	tool.DefaultLogger.Debugf("Sending notification to Unix socket (len=%d): %s", len(payload), string(payload))
	for off := 0; off < len(payload); {
		chunkEnd := min(off+NotifyWriteChunkSize, len(payload))
		nw, err := conn.Write(payload[off:chunkEnd])
		if err != nil {
			return fmt.Errorf("failed to write payload to Unix socket: %v", err)
		}
		off += nw
	}

	if err := conn.SetReadDeadline(time.Now().Add(UnixSocketTimeout)); err != nil {
		tool.DefaultLogger.Errorf("Failed to set read deadline: %v", err)
	}

	buf := make([]byte, 4096)
	n, err := conn.Read(buf)
	if err != nil && err != io.EOF {
		return fmt.Errorf("failed to read response from Unix socket: %v", err)
	}

	var response map[string]any
	if n > 0 {
		if err := sonic.Unmarshal(buf[:n], &response); err != nil {
			tool.DefaultLogger.Debugf("Unix socket response (raw): %s", string(buf[:n]))
		} else {
			tool.DefaultLogger.Debugf("Unix socket response: %v", response)
			if errMsg, ok := response["error"].(string); ok && errMsg != "" {
				return fmt.Errorf("server returned error: %s", errMsg)
			}
		}
	}

	if notification != nil {
		tool.DefaultLogger.Infof("[UnixSocket] Notification sent: %s - %s", notification.Type, notification.Title)
	} else {
		tool.DefaultLogger.Infof("[UnixSocket] Notification sent")
	}
	return nil
}

// SendSimpleNotification sends a simple text notification
func SendSimpleNotification(title, message string) error {
	notification := &types.Notification{
		Type:    types.NotifyTypeInfo,
		Title:   title,
		Message: message,
	}
	optMu.RLock()
	path := socketPath
	optMu.RUnlock()
	return SendNotification(notification, path)
}
