// Package status broadcasts extraction progress to every connected
// websocket client. A client may send "cancel" to stop the running
// texture flush.
package status

import (
	"encoding/json"
	"fmt"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/mogaika/geometry_source/utils"
)

type Type int

const (
	INFO Type = iota
	ERROR
	PROGRESS
)

const (
	pingPeriod   = 30 * time.Second
	writeTimeout = 40 * time.Second
	cancelMsg    = "cancel"
)

type status struct {
	Message  string    `json:"message"`
	Time     time.Time `json:"time"`
	Type     Type      `json:"type"`
	Progress float32   `json:"progress"`
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		unregisterClient(c)
		c.conn.Close()
	}()
	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				utils.LogDebug("[status] ws write msg error: %v", err)
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				utils.LogDebug("[status] ws write ping error: %v", err)
				return
			}
		}
	}
}

// readPump only listens for cancel requests
func (c *client) readPump() {
	defer unregisterClient(c)
	for {
		_, msg, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		if string(msg) == cancelMsg {
			utils.LogInfo("[status] Cancel requested by %v", c.conn.RemoteAddr())
			Cancel()
		}
	}
}

// NewClient starts serving conn, the last status is sent right away
func NewClient(conn *websocket.Conn) *client {
	c := &client{conn: conn, send: make(chan []byte, 32)}
	registerClient(c)
	go c.writePump()
	go c.readPump()
	globalLock.Lock()
	defer globalLock.Unlock()
	if lastMessage != nil {
		c.send <- lastMessage
	}
	return c
}

var (
	statusBroadcast chan *status
	broadcastList   map[*client]bool
	globalLock      sync.Mutex
	lastMessage     []byte
	cancelled       atomic.Bool
)

func registerClient(c *client) {
	globalLock.Lock()
	defer globalLock.Unlock()
	broadcastList[c] = true
}

func unregisterClient(c *client) {
	globalLock.Lock()
	defer globalLock.Unlock()
	if broadcastList[c] {
		delete(broadcastList, c)
		close(c.send)
	}
}

func init() {
	statusBroadcast = make(chan *status, 16)
	broadcastList = make(map[*client]bool)
	go func() {
		for s := range statusBroadcast {
			data, err := json.Marshal(s)
			if err != nil {
				utils.LogError("[status] Failed to marshal status: %v", err)
				continue
			}
			globalLock.Lock()
			lastMessage = data
			for c := range broadcastList {
				select {
				case c.send <- data:
				default:
					// slow client, it will catch up with the next message
				}
			}
			globalLock.Unlock()
		}
	}()
}

func Status(msg string, t Type, progress float32) {
	if math.IsNaN(float64(progress)) || math.IsInf(float64(progress), 0) {
		progress = 0
	}
	statusBroadcast <- &status{
		Message:  msg,
		Time:     time.Now(),
		Type:     t,
		Progress: progress,
	}
}

func Info(format string, a ...interface{}) {
	Status(fmt.Sprintf(format, a...), INFO, 0.0)
}

func Error(format string, a ...interface{}) {
	Status(fmt.Sprintf(format, a...), ERROR, 0.0)
}

func Progress(progress float32, format string, a ...interface{}) {
	Status(fmt.Sprintf(format, a...), PROGRESS, progress)
}

// Cancel makes the next TextureProgress call stop the flush
func Cancel() {
	cancelled.Store(true)
}

// TextureProgress reports a texture flush and passes on cancel requests.
// Pending cancels are dropped when a new flush starts.
func TextureProgress(done, total int, name string) bool {
	if done == 0 {
		cancelled.Store(false)
	}
	if total == 0 {
		return false
	}
	if done == total {
		Info("Extracted %d textures", total)
		return false
	}
	Progress(float32(done)/float32(total), "Texture %d/%d %s", done+1, total, name)
	return cancelled.Swap(false)
}
