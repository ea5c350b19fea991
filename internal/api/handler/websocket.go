package handler

import (
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/qs3c/coa_server/internal/api/middleware"
	"github.com/qs3c/coa_server/internal/pkg/jwt"
	"github.com/qs3c/coa_server/internal/pkg/response"
	"github.com/qs3c/coa_server/internal/pkg/ws"
)

// 进度推送只有下行，客户端发来的内容直接丢弃
const (
	wsPongWait   = 60 * time.Second
	wsPingPeriod = wsPongWait * 9 / 10
	wsWriteWait  = 10 * time.Second
	wsReadLimit  = 512
)

var errMissingToken = errors.New("missing token")

type WebSocketHandler struct {
	hub       *ws.Hub
	jwtSecret string
	upgrader  websocket.Upgrader
}

// NewWebSocketHandler allowedOrigins 与 CORS 配置共用，为空时不校验来源
func NewWebSocketHandler(hub *ws.Hub, jwtSecret string, allowedOrigins []string) *WebSocketHandler {
	return &WebSocketHandler{
		hub:       hub,
		jwtSecret: jwtSecret,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if origin == "" || len(allowedOrigins) == 0 {
					return true
				}
				return middleware.OriginAllowed(allowedOrigins, origin)
			},
		},
	}
}

// Handle 建立进度推送连接，同一会员可以同时打开多个连接
// GET /api/v1/ws?token=xxx
func (h *WebSocketHandler) Handle(c *gin.Context) {
	memberID, err := h.memberFromQuery(c)
	if err != nil {
		message := "认证失败或已过期"
		if errors.Is(err, errMissingToken) {
			message = "请提供认证信息"
		}
		// 握手阶段直接以 401 拒绝，不升级
		c.AbortWithStatusJSON(http.StatusUnauthorized, response.Response{
			Code:    response.CodeAuthFailed,
			Message: message,
		})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("Failed to upgrade connection for member %d: %v", memberID, err)
		return
	}

	client := &ws.Client{MemberID: memberID, Conn: conn}
	h.hub.Register(client)

	done := make(chan struct{})
	go h.keepAlive(conn, done)
	go func() {
		defer func() {
			close(done)
			h.hub.Unregister(client)
			conn.Close()
		}()
		h.drain(conn)
	}()
}

// memberFromQuery 浏览器握手无法携带 Authorization 头，令牌走 query
func (h *WebSocketHandler) memberFromQuery(c *gin.Context) (int64, error) {
	token := c.Query("token")
	if token == "" {
		return 0, errMissingToken
	}
	claims, err := jwt.ParseToken(token, h.jwtSecret)
	if err != nil {
		return 0, err
	}
	return claims.MemberID, nil
}

// drain 读到出错（断开或心跳超时）为止
func (h *WebSocketHandler) drain(conn *websocket.Conn) {
	conn.SetReadLimit(wsReadLimit)
	conn.SetReadDeadline(time.Now().Add(wsPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

// keepAlive WriteControl 可与 hub 的写入并发调用
func (h *WebSocketHandler) keepAlive(conn *websocket.Conn, done <-chan struct{}) {
	ticker := time.NewTicker(wsPingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteWait)); err != nil {
				return
			}
		}
	}
}
