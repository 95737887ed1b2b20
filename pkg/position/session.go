package position

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/robinjoseph08/golib/logger"
	"github.com/segmentio/encoding/json"
)

// upgrader mirrors the permissive-origin shape petervdpas-goop2's
// internal/viewer/routes/call.go uses for its media-call upgrade; this
// protocol is request/response rather than that one's one-way push feed,
// so ServeConn drives a synchronous read-dispatch-write loop instead of a
// read-drain-goroutine-plus-select-write loop.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// queryTimeout bounds a query response per §4.E: "Queries have a
// server-side timeout (>=3s)".
const queryTimeout = 3 * time.Second

// session holds the per-connection context the short forms reuse: the
// group/col/path of the most recent long update (§4.E "Update (short):
// reuses the most recent long update on this same connection"), and the
// default group established at upgrade time for a bare generic query.
type session struct {
	group       string
	hasLast     bool
	lastCol     int
	lastRelPath string
}

// ServeConn upgrades r and drives §4.E's read-dispatch-respond loop until
// the client closes the connection, the server shuts it down, or a
// protocol violation occurs. defaultGroup seeds the connection's group
// context from the upgrade URL's ?group= parameter, so a bare "?" works
// immediately on a freshly opened connection — see DESIGN.md's Open
// Question decision on how "generic query" resolves its group.
func ServeConn(w http.ResponseWriter, r *http.Request, mgr *Manager, defaultGroup string, log logger.Logger) error {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	sess := &session{group: defaultGroup}

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return nil
		}

		resp, closeConn := sess.handle(mgr, string(data), log)
		if resp != nil {
			out, err := json.Marshal(resp)
			if err != nil {
				log.Warn("failed to marshal position response", logger.Data{"error": err.Error()})
				continue
			}
			conn.SetWriteDeadline(time.Now().Add(queryTimeout))
			if err := conn.WriteMessage(websocket.TextMessage, out); err != nil {
				return nil
			}
		}
		if closeConn {
			return nil
		}
	}
}

func (s *session) handle(mgr *Manager, raw string, log logger.Logger) (*Response, bool) {
	msg, err := Parse(raw)
	if err != nil {
		log.Warn("malformed position message, closing connection", logger.Data{"error": err.Error()})
		return nil, true
	}

	switch msg.Kind {
	case KindUpdateLong:
		s.group, s.lastCol, s.lastRelPath, s.hasLast = msg.Group, msg.CollectionID, msg.RelPath, true
		if _, err := mgr.Update(msg.Group, msg.CollectionID, msg.RelPath, msg.PositionSecs, time.Now().UnixMilli()); err != nil {
			s.logApplyErr(log, err)
		}
		return nil, false

	case KindUpdateLongTS:
		s.group, s.lastCol, s.lastRelPath, s.hasLast = msg.Group, msg.CollectionID, msg.RelPath, true
		if _, err := mgr.UpdateIfNewer(msg.Group, msg.CollectionID, msg.RelPath, msg.PositionSecs, msg.UnixSeconds); err != nil {
			s.logApplyErr(log, err)
		}
		return nil, false

	case KindUpdateShort:
		if !s.hasLast {
			log.Warn("position short update with no prior long update on this connection", logger.Data{})
			return nil, true
		}
		if _, err := mgr.Update(s.group, s.lastCol, s.lastRelPath, msg.PositionSecs, time.Now().UnixMilli()); err != nil {
			s.logApplyErr(log, err)
		}
		return nil, false

	case KindQuery:
		resp, err := mgr.Query(msg.Group, msg.CollectionID, msg.RelPath)
		if err != nil {
			s.logApplyErr(log, err)
			return &Response{}, false
		}
		s.group = msg.Group
		return resp, false

	case KindGenericQuery:
		resp, err := mgr.GenericQuery(s.group)
		if err != nil {
			s.logApplyErr(log, err)
			return &Response{}, false
		}
		return resp, false
	}

	return nil, true
}

func (s *session) logApplyErr(log logger.Logger, err error) {
	if err == ErrOlderThanStored {
		log.Warn("dropped out-of-order position update", logger.Data{"error": err.Error()})
		return
	}
	log.Warn("position update rejected", logger.Data{"error": err.Error()})
}
