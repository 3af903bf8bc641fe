package devicestatus

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"seedflow/frontend/shared/html"
	"seedflow/infrastructure/fetch"
	"seedflow/models"
)

// Source reads the CLP status from the bridge.
type Source func(ctx context.Context) ([]models.DeviceStatus, error)

const writeWait = 10 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// StreamHandler pushes the CLP badge state to the browser. Every connection
// polls the bridge on its own and stops when the socket closes.
func StreamHandler(source Source, interval time.Duration, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := logger.With(zap.String("handler", "device_status_stream"))
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Warn("websocket upgrade failed", zap.Error(err))
			return
		}
		defer conn.Close()

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		// Incoming frames are discarded; a read error means the peer left.
		var wg sync.WaitGroup
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer cancel()
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()

		status := fetch.NewResource("clp status", fetch.Loader[[]models.DeviceStatus](source),
			fetch.WithFailureMessage("Erro ao carregar status CLP"), fetch.WithLogger(log))
		sub := fetch.Subscribe(ctx, interval, func(ctx context.Context) {
			_ = status.Refetch(ctx)
			if ctx.Err() != nil {
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(html.BadgeFromState(status.Snapshot())); err != nil {
				log.Debug("device status push failed", zap.Error(err))
				cancel()
			}
		})

		<-ctx.Done()
		sub.Stop()
		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		_ = conn.Close()
		wg.Wait()
	}
}
