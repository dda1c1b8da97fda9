// Package server hosts a crop screen over HTTP for a browser front end.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/menta2k/avatarcrop"
	"github.com/menta2k/avatarcrop/internal/utils"
	"github.com/menta2k/avatarcrop/pkg/cropper"
	"github.com/menta2k/avatarcrop/pkg/geometry"
	"github.com/menta2k/avatarcrop/pkg/types"
)

// Config wires the web app to a source image and its collaborators
type Config struct {
	ListenAddr string
	ImagePath  string
	ImgWidth   int
	ImgHeight  int
	Limits     geometry.Limits
	Resolver   *cropper.Resolver
	OnReady    func(addr string)
	OnSave     func(encoded string)
	OnRetake   func()
}

// WebApp serves one crop screen
type WebApp struct {
	ctx    context.Context
	config Config
	screen *avatarcrop.Screen
	app    *fiber.App

	mu      sync.Mutex
	lastOut string
	lastErr error
}

type stateResponse struct {
	Frame     types.Frame     `json:"frame"`
	Committed types.Committed `json:"committed"`
	Phase     string          `json:"phase"`
	Status    string          `json:"status"`
	Diameter  float64         `json:"diameter"`
	ImageSize types.Size      `json:"imageSize"`
	Ready     bool            `json:"ready"`
}

type panRequest struct {
	X   float64 `json:"x"`
	Y   float64 `json:"y"`
	End bool    `json:"end"`
}

type pinchRequest struct {
	Scale float64 `json:"scale"`
	End   bool    `json:"end"`
}

// New creates the web app and its crop screen
func New(ctx context.Context, config Config) *WebApp {
	a := &WebApp{ctx: ctx, config: config}
	a.screen = avatarcrop.NewWithLimits(ctx, avatarcrop.Props{
		Image:         config.ImagePath,
		ImgWidth:      float64(config.ImgWidth),
		ImgHeight:     float64(config.ImgHeight),
		RetakePicture: a.retake,
		Save:          a.save,
		OnError:       a.fail,
	}, config.Resolver, config.Limits)
	a.app = a.routes()
	return a
}

// App exposes the fiber application
func (a *WebApp) App() *fiber.App {
	return a.app
}

// Screen exposes the hosted crop screen
func (a *WebApp) Screen() *avatarcrop.Screen {
	return a.screen
}

func (a *WebApp) save(encoded string) {
	a.mu.Lock()
	a.lastOut, a.lastErr = encoded, nil
	a.mu.Unlock()
	if fn := a.config.OnSave; fn != nil {
		fn(encoded)
	}
}

func (a *WebApp) fail(err error) {
	a.mu.Lock()
	a.lastOut, a.lastErr = "", err
	a.mu.Unlock()
}

func (a *WebApp) retake() {
	if fn := a.config.OnRetake; fn != nil {
		fn()
	}
}

func (a *WebApp) routes() *fiber.App {
	webapp := fiber.New(fiber.Config{
		Immutable:             true,
		DisableStartupMessage: true,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			log.Ctx(c.UserContext()).Error().
				Err(err).
				Str("path", c.Path()).
				Str("method", c.Method()).
				Msg("Request failed")
			var fiberErr *fiber.Error
			if errors.As(err, &fiberErr) {
				return c.Status(fiberErr.Code).JSON(fiber.Map{"error": fiberErr.Message})
			}
			return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
		},
	})

	webapp.Use(func(c *fiber.Ctx) error {
		c.SetUserContext(a.ctx)
		return c.Next()
	})

	webapp.Get("/api/state", func(c *fiber.Ctx) error {
		return c.JSON(a.state())
	})

	webapp.Get("/api/image", func(c *fiber.Ctx) error {
		source := a.screen.Props().Image
		c.Set(fiber.HeaderContentType, utils.ContentType(source))
		return c.SendFile(source)
	})

	webapp.Post("/api/layout", func(c *fiber.Ctx) error {
		var request types.Size
		if err := c.BodyParser(&request); err != nil {
			return fiber.NewError(http.StatusBadRequest, err.Error())
		}
		if !request.Positive() {
			return fiber.NewError(http.StatusBadRequest, "width and height must be positive")
		}
		a.screen.OnLayout(request.Width, request.Height)
		return c.JSON(a.state())
	})

	webapp.Post("/api/pan", func(c *fiber.Ctx) error {
		var request panRequest
		if err := c.BodyParser(&request); err != nil {
			return fiber.NewError(http.StatusBadRequest, err.Error())
		}
		if request.End {
			a.screen.PanEnd(request.X, request.Y)
		} else {
			a.screen.PanMove(request.X, request.Y)
		}
		return c.JSON(a.state())
	})

	webapp.Post("/api/pinch", func(c *fiber.Ctx) error {
		var request pinchRequest
		if err := c.BodyParser(&request); err != nil {
			return fiber.NewError(http.StatusBadRequest, err.Error())
		}
		if request.End {
			a.screen.PinchEnd(request.Scale)
		} else {
			a.screen.PinchMove(request.Scale)
		}
		return c.JSON(a.state())
	})

	webapp.Post("/api/confirm", func(c *fiber.Ctx) error {
		if err := a.screen.Confirm(); err != nil {
			switch {
			case errors.Is(err, avatarcrop.ErrCropInProgress), errors.Is(err, avatarcrop.ErrNotReady):
				return fiber.NewError(http.StatusConflict, err.Error())
			case errors.Is(err, avatarcrop.ErrClosed):
				return fiber.NewError(http.StatusGone, err.Error())
			default:
				return err
			}
		}
		if err := a.screen.Wait(); err != nil {
			return err
		}

		a.mu.Lock()
		out, cropErr := a.lastOut, a.lastErr
		a.mu.Unlock()
		if cropErr != nil {
			return fiber.NewError(http.StatusUnprocessableEntity, cropErr.Error())
		}
		return c.JSON(fiber.Map{"image": out})
	})

	webapp.Post("/api/retake", func(c *fiber.Ctx) error {
		a.screen.Retake()
		return c.SendStatus(http.StatusNoContent)
	})

	return webapp
}

func (a *WebApp) state() stateResponse {
	b := a.screen.Bounds()
	return stateResponse{
		Frame:     a.screen.Frame(),
		Committed: a.screen.Committed(),
		Phase:     a.screen.Phase().String(),
		Status:    a.screen.Status().String(),
		Diameter:  b.Diameter(),
		ImageSize: b.ImageSize(),
		Ready:     b.Ready(),
	}
}

// Run serves until ctx is cancelled
func (a *WebApp) Run(ctx context.Context) error {
	a.app.Hooks().OnListen(func(listen fiber.ListenData) error {
		if fn := a.config.OnReady; fn != nil {
			fn(fmt.Sprintf("http://%s:%s", listen.Host, listen.Port))
		}
		return nil
	})

	go func() {
		<-ctx.Done()
		if err := a.screen.Close(); err != nil {
			log.Ctx(ctx).Error().Err(err).Msg("Failed to close crop screen")
		}
		if err := a.app.ShutdownWithTimeout(5 * time.Second); err != nil {
			log.Ctx(ctx).Error().Err(err).Msg("Failed to shutdown web application")
		}
	}()

	if err := a.app.Listen(a.config.ListenAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}
