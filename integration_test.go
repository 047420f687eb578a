package servolink_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/servolink/servolink-go/pkg/api"
	"github.com/servolink/servolink-go/pkg/feed"
	"github.com/servolink/servolink-go/pkg/link"
	"github.com/servolink/servolink-go/pkg/profile"
	"github.com/servolink/servolink-go/pkg/session"
	"github.com/servolink/servolink-go/pkg/signal"
	"github.com/servolink/servolink-go/pkg/wire"
)

// devicePort is an in-memory serial port that decodes what it receives.
type devicePort struct {
	mu     sync.Mutex
	buf    strings.Builder
	lines  [][]int
	fail   error
	closed bool
}

func (p *devicePort) Write(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.fail != nil {
		return 0, p.fail
	}
	p.buf.Write(b)
	for {
		s := p.buf.String()
		i := strings.IndexByte(s, '\n')
		if i < 0 {
			break
		}
		if values, err := wire.Decode(s[:i+1]); err == nil {
			p.lines = append(p.lines, values)
		}
		p.buf.Reset()
		p.buf.WriteString(s[i+1:])
	}
	return len(b), nil
}

func (p *devicePort) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}

func (p *devicePort) last() []int {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.lines) == 0 {
		return nil
	}
	return p.lines[len(p.lines)-1]
}

func (p *devicePort) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.lines)
}

func (p *devicePort) breakPort(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.fail = err
}

// bench wires a profile, a link on in-memory ports and a running session.
type bench struct {
	link    *link.Link
	session *session.Session
	mu      sync.Mutex
	ports   []*devicePort
}

func newBench(t *testing.T, profileName string) *bench {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	b := &bench{}
	opener := link.OpenerFunc(func(name string, baud int) (link.Port, error) {
		b.mu.Lock()
		defer b.mu.Unlock()
		p := &devicePort{}
		b.ports = append(b.ports, p)
		return p, nil
	})
	b.link = link.New(opener, link.WithStore(link.NewMemoryStore("COM3")))
	t.Cleanup(func() { _ = b.link.Close() })

	p, err := profile.Lookup(profileName)
	require.NoError(t, err)
	b.session, err = session.New(p, b.link, session.Config{FPS: 200})
	require.NoError(t, err)

	go func() { _ = b.session.Run(ctx) }()
	return b
}

func (b *bench) port(i int) *devicePort {
	b.mu.Lock()
	defer b.mu.Unlock()
	if i >= len(b.ports) {
		return nil
	}
	return b.ports[i]
}

func (b *bench) waitForLine(t *testing.T, port int, want []int) {
	t.Helper()
	require.Eventually(t, func() bool {
		p := b.port(port)
		if p == nil {
			return false
		}
		got := p.last()
		return len(got) == len(want) && assert.ObjectsAreEqual(want, got)
	}, 3*time.Second, 5*time.Millisecond, "device never received %v", want)
}

// TestE2E_FeedToDevice pushes keypoints over the TCP feed and checks the
// angle the servo receives.
func TestE2E_FeedToDevice(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	b := newBench(t, "point-at-you")
	require.NoError(t, b.link.AutoConnect(context.Background()))
	assert.Equal(t, "COM3", b.link.Port())

	srv, err := feed.NewServer(feed.ServerConfig{
		Address: "127.0.0.1:0",
		Sink: func(source string, s signal.Sample) error {
			if err := b.session.Accepts(source); err != nil {
				return err
			}
			return b.session.Submit(session.SetInput(source, s).From("feed"))
		},
	})
	require.NoError(t, err)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	require.NoError(t, srv.Start(ctx))
	defer srv.Stop()

	client, err := feed.Dial(ctx, srv.Addr().String())
	require.NoError(t, err)
	defer client.Close()

	// Nose at the right edge of a 640 px frame.
	require.NoError(t, client.Send(feed.Message{
		Source:    profile.SourcePose,
		Keypoints: []signal.Point{{X: 640, Y: 200, Confidence: 0.9}},
		Width:     640,
		Height:    480,
	}))
	b.waitForLine(t, 0, []int{180, 90})

	// Left edge.
	require.NoError(t, client.Send(feed.Message{
		Source:    profile.SourcePose,
		Keypoints: []signal.Point{{X: 0, Y: 200, Confidence: 0.9}},
		Width:     640,
		Height:    480,
	}))
	b.waitForLine(t, 0, []int{0, 90})

	// Unknown sources are dropped without closing the connection.
	require.NoError(t, client.Send(feed.Message{Source: "sliders", Values: []float64{1, 2}}))
	require.NoError(t, client.Send(feed.Message{
		Source:    profile.SourcePose,
		Keypoints: []signal.Point{{X: 320, Y: 200, Confidence: 0.9}},
		Width:     640,
	}))
	b.waitForLine(t, 0, []int{90, 90})
	require.Eventually(t, func() bool { return srv.Received() == 3 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, 1, srv.ConnectionCount())
}

// TestE2E_ReconnectAfterVanish unplugs the device mid-stream and reconnects
// through a session command.
func TestE2E_ReconnectAfterVanish(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	b := newBench(t, "base")

	var mu sync.Mutex
	var reasons []link.Reason
	b.link.OnStateChange(func(_, newState link.State, err error) {
		if newState != link.StateClosed || err == nil {
			return
		}
		var ce *link.ConnectionError
		if errors.As(err, &ce) {
			mu.Lock()
			reasons = append(reasons, ce.Reason)
			mu.Unlock()
		}
	})

	require.NoError(t, b.session.Submit(session.Connect("COM3")))
	b.waitForLine(t, 0, []int{10, 255})

	b.port(0).breakPort(errors.New("device not configured"))
	require.Eventually(t, func() bool { return !b.link.IsOpen() }, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, session.LabelConnect, b.session.Status().Label)

	mu.Lock()
	assert.Equal(t, []link.Reason{link.ReasonVanished}, reasons)
	mu.Unlock()

	require.NoError(t, b.session.Submit(session.Connect("COM3")))
	b.waitForLine(t, 1, []int{10, 255})
	require.Eventually(t, func() bool {
		return b.session.Status().Label == session.LabelDisconnect
	}, 2*time.Second, 5*time.Millisecond)
}

// TestE2E_HTTPDrivesDevice moves the pointer through the HTTP API.
func TestE2E_HTTPDrivesDevice(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	gin.SetMode(gin.TestMode)

	b := newBench(t, "mouse-led")
	engine := api.NewEngine(api.NewServer(b.session, b.link, "test", nil), nil)
	srv := httptest.NewServer(engine)
	defer srv.Close()

	post := func(path, body string) int {
		resp, err := http.Post(srv.URL+path, "application/json", strings.NewReader(body))
		require.NoError(t, err)
		resp.Body.Close()
		return resp.StatusCode
	}

	assert.Equal(t, http.StatusAccepted, post("/api/connect", `{"port":"COM3"}`))
	assert.Equal(t, http.StatusAccepted, post("/api/inputs/pointer", `{"values":[0.2,1]}`))
	b.waitForLine(t, 0, []int{51, 255})

	assert.Equal(t, http.StatusAccepted, post("/api/disconnect", ""))
	require.Eventually(t, func() bool { return !b.link.IsOpen() }, 2*time.Second, 5*time.Millisecond)

	n := b.port(0).count()
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, n, b.port(0).count(), "no lines after disconnect")
}
