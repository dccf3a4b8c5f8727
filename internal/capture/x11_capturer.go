package capture

import (
	"fmt"
	"image"
	"sync"
	"time"

	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/randr"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/bryanchriswhite/screenagent/internal/logger"
)

// X11Capturer captures monitors of the X server using RandR for enumeration
type X11Capturer struct {
	conn         *xgb.Conn
	root         xproto.Window
	screen       *xproto.ScreenInfo
	randrEnabled bool
	mu           sync.Mutex
}

// NewX11Capturer creates a new X11 capturer
func NewX11Capturer() (*X11Capturer, error) {
	conn, err := xgb.NewConn()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to X server: %w", err)
	}

	setup := xproto.Setup(conn)
	screen := setup.DefaultScreen(conn)

	return &X11Capturer{
		conn:   conn,
		root:   screen.Root,
		screen: screen,
	}, nil
}

// Start initializes the RandR extension
func (c *X11Capturer) Start() error {
	log := logger.WithComponent("x11-capturer")

	if err := randr.Init(c.conn); err != nil {
		log.Warn().
			Err(err).
			Msg("RandR extension not available - treating the root window as the only display")
		c.randrEnabled = false
	} else {
		c.randrEnabled = true
		log.Info().Msg("RandR extension initialized")
	}

	return nil
}

// Stop closes the X11 connection
func (c *X11Capturer) Stop() error {
	c.conn.Close()
	return nil
}

// Name returns the capturer name
func (c *X11Capturer) Name() string {
	return "X11"
}

// Displays enumerates connected RandR outputs that drive a CRTC
func (c *X11Capturer) Displays() ([]Display, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.displaysLocked()
}

func (c *X11Capturer) displaysLocked() ([]Display, error) {
	root := Display{
		ID:      int64(c.root),
		Name:    "screen",
		Primary: true,
		Bounds:  image.Rect(0, 0, int(c.screen.WidthInPixels), int(c.screen.HeightInPixels)),
	}
	if !c.randrEnabled {
		return []Display{root}, nil
	}

	res, err := randr.GetScreenResourcesCurrent(c.conn, c.root).Reply()
	if err != nil {
		return nil, fmt.Errorf("failed to get screen resources: %w", err)
	}

	var primary randr.Output
	if reply, err := randr.GetOutputPrimary(c.conn, c.root).Reply(); err == nil {
		primary = reply.Output
	}

	displays := make([]Display, 0, len(res.Outputs))
	for _, out := range res.Outputs {
		info, err := randr.GetOutputInfo(c.conn, out, res.ConfigTimestamp).Reply()
		if err != nil {
			return nil, fmt.Errorf("failed to get output info for %d: %w", out, err)
		}
		if info.Connection != randr.ConnectionConnected || info.Crtc == 0 {
			continue
		}

		crtc, err := randr.GetCrtcInfo(c.conn, info.Crtc, res.ConfigTimestamp).Reply()
		if err != nil {
			return nil, fmt.Errorf("failed to get crtc info for output %d: %w", out, err)
		}
		if crtc.Width == 0 || crtc.Height == 0 {
			continue
		}

		x, y := int(crtc.X), int(crtc.Y)
		displays = append(displays, Display{
			ID:      int64(out),
			Name:    string(info.Name),
			Primary: out == primary,
			Bounds:  image.Rect(x, y, x+int(crtc.Width), y+int(crtc.Height)),
		})
	}

	return orRoot(displays, root), nil
}

// orRoot substitutes the root window when RandR reports no active output
func orRoot(displays []Display, root Display) []Display {
	if len(displays) == 0 {
		return []Display{root}
	}
	return displays
}

// CapturePrimary grabs the primary monitor's region of the root window
func (c *X11Capturer) CapturePrimary() (*Frame, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	displays, err := c.displaysLocked()
	if err != nil {
		return nil, err
	}
	d, ok := Primary(displays)
	if !ok {
		return nil, ErrNoPrimaryDisplay
	}

	timestamp := time.Now()
	img, err := c.captureRegionLocked(d.Bounds)
	if err != nil {
		return nil, err
	}

	logger.WithComponent("x11-capturer").Debug().
		Int64("monitor", d.ID).
		Str("name", d.Name).
		Int("width", d.Bounds.Dx()).
		Int("height", d.Bounds.Dy()).
		Msg("Captured primary display")

	return &Frame{
		Timestamp: timestamp,
		MonitorID: d.ID,
		Image:     img,
	}, nil
}

func (c *X11Capturer) captureRegionLocked(r image.Rectangle) (*image.RGBA, error) {
	reply, err := xproto.GetImage(
		c.conn,
		xproto.ImageFormatZPixmap,
		xproto.Drawable(c.root),
		int16(r.Min.X), int16(r.Min.Y),
		uint16(r.Dx()), uint16(r.Dy()),
		0xffffffff,
	).Reply()
	if err != nil {
		return nil, fmt.Errorf("failed to get image: %w", err)
	}

	return c.convertImageData(reply.Data, r.Dx(), r.Dy())
}

// convertImageData converts X11 ZPixmap data (BGRx) to RGBA
func (c *X11Capturer) convertImageData(data []byte, width, height int) (*image.RGBA, error) {
	depth := int(c.screen.RootDepth)
	if depth != 24 && depth != 32 {
		return nil, fmt.Errorf("unsupported root depth %d", depth)
	}
	return convertBGRX(data, width, height), nil
}

func convertBGRX(data []byte, width, height int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	pix := img.Pix
	for i := 0; i+3 < len(data) && i+3 < len(pix); i += 4 {
		pix[i+0] = data[i+2]
		pix[i+1] = data[i+1]
		pix[i+2] = data[i]
		pix[i+3] = 255
	}
	return img
}
