package walkclient

import (
	"context"
	"io"
	"net"
	"testing"
	"time"

	"backend-pettopia/internal/pet"
	"backend-pettopia/internal/walk"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
)

type seenRequest struct {
	method, path, auth, pet, contentType string
	body                                 []byte
}

// serveStub runs app on a loopback listener and returns its base URL.
func serveStub(t *testing.T, app *fiber.App) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go func() { _ = app.Listener(ln) }()
	t.Cleanup(func() { _ = app.Shutdown() })
	return "http://" + ln.Addr().String()
}

func stubApp(seen chan<- seenRequest) *fiber.App {
	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	app.Use(func(c *fiber.Ctx) error {
		seen <- seenRequest{
			method:      c.Method(),
			path:        c.Path(),
			auth:        c.Get(fiber.HeaderAuthorization),
			pet:         c.Get(pet.HeaderPetAccountID),
			contentType: c.Get(fiber.HeaderContentType),
			body:        append([]byte(nil), c.Body()...),
		}
		return c.Next()
	})

	session := func(status walk.Status) fiber.Handler {
		return func(c *fiber.Ctx) error {
			id := c.Params("id", "walk-1")
			return c.Status(fiber.StatusCreated).JSON(walk.Session{ID: id, Status: status, PetAccountID: "pet-a"})
		}
	}
	app.Post("/walks/start", session(walk.StatusWalking))
	app.Patch("/walks/:id/location", session(walk.StatusWalking))
	app.Post("/walks/:id/photos", session(walk.StatusWalking))
	app.Post("/walks/:id/end", session(walk.StatusCompleted))
	app.Delete("/walks/:id", session(walk.StatusCancelled))
	app.Get("/walks/current", func(c *fiber.Ctx) error {
		return c.JSON(nil)
	})
	app.Post("/upload/image", func(c *fiber.Ctx) error {
		fh, err := c.FormFile("file")
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "file is required"})
		}
		f, err := fh.Open()
		if err != nil {
			return err
		}
		defer f.Close()
		data, _ := io.ReadAll(f)
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"url": "https://cdn/" + fh.Filename + "/" + string(data)})
	})
	return app
}

func TestHTTPAPIRoutesAndHeaders(t *testing.T) {
	seen := make(chan seenRequest, 16)
	api := NewHTTPAPI(serveStub(t, stubApp(seen))+"/", "token-1", "pet-a")
	ctx := context.Background()

	lat, lng := 37.5, 127.03
	w, err := api.StartWalk(ctx, walk.StartInput{Latitude: &lat, Longitude: &lng})
	require.NoError(t, err)
	require.Equal(t, walk.StatusWalking, w.Status)
	req := <-seen
	require.Equal(t, "POST", req.method)
	require.Equal(t, "/walks/start", req.path)
	require.Equal(t, "Bearer token-1", req.auth)
	require.Equal(t, "pet-a", req.pet)
	require.JSONEq(t, `{"latitude":37.5,"longitude":127.03}`, string(req.body))

	_, err = api.UpdateLocation(ctx, "walk-1", 37.501, 127.031)
	require.NoError(t, err)
	req = <-seen
	require.Equal(t, "PATCH", req.method)
	require.Equal(t, "/walks/walk-1/location", req.path)
	require.JSONEq(t, `{"latitude":37.501,"longitude":127.031}`, string(req.body))

	_, err = api.AddPhoto(ctx, "walk-1", "https://cdn/a.jpg")
	require.NoError(t, err)
	req = <-seen
	require.Equal(t, "/walks/walk-1/photos", req.path)
	require.JSONEq(t, `{"photoUrl":"https://cdn/a.jpg"}`, string(req.body))

	duration, distance := 1800, 2500.0
	w, err = api.EndWalk(ctx, "walk-1", walk.EndInput{Duration: &duration, Distance: &distance})
	require.NoError(t, err)
	require.Equal(t, walk.StatusCompleted, w.Status)
	req = <-seen
	require.Equal(t, "/walks/walk-1/end", req.path)
	require.JSONEq(t, `{"latitude":null,"longitude":null,"duration":1800,"distance":2500}`, string(req.body))

	w, err = api.CancelWalk(ctx, "walk-2")
	require.NoError(t, err)
	require.Equal(t, "walk-2", w.ID)
	require.Equal(t, walk.StatusCancelled, w.Status)
	req = <-seen
	require.Equal(t, "DELETE", req.method)
	require.Equal(t, "/walks/walk-2", req.path)

	cur, err := api.CurrentWalk(ctx)
	require.NoError(t, err)
	require.Nil(t, cur)
	<-seen
}

func TestHTTPAPIUploadImage(t *testing.T) {
	seen := make(chan seenRequest, 4)
	api := NewHTTPAPI(serveStub(t, stubApp(seen)), "token-1", "pet-a")

	url, err := api.UploadImage(context.Background(), "a.jpg", []byte("bytes"))
	require.NoError(t, err)
	require.Equal(t, "https://cdn/a.jpg/bytes", url)
	req := <-seen
	require.Contains(t, req.contentType, fiber.MIMEMultipartForm)
}

func TestHTTPAPIMapsErrorStatuses(t *testing.T) {
	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	app.Get("/walks/current", func(c *fiber.Ctx) error {
		switch c.Get(pet.HeaderPetAccountID) {
		case "conflict":
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"message": "walk already in progress"})
		case "missing":
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "walk not found"})
		case "other":
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"message": "not your walk"})
		case "bad":
			return c.Status(fiber.StatusBadRequest).SendString("bad input")
		}
		return c.SendStatus(fiber.StatusBadGateway)
	})
	base := serveStub(t, app)

	cases := []struct {
		pet  string
		want error
	}{
		{"conflict", walk.ErrConflict},
		{"missing", walk.ErrNotFound},
		{"other", walk.ErrForbidden},
		{"bad", walk.ErrInvalidInput},
	}
	for _, tc := range cases {
		_, err := NewHTTPAPI(base, "t", tc.pet).CurrentWalk(context.Background())
		require.ErrorIs(t, err, tc.want, tc.pet)
	}

	_, err := NewHTTPAPI(base, "t", "gateway").CurrentWalk(context.Background())
	require.ErrorContains(t, err, "status 502")

	_, err = NewHTTPAPI(base, "t", "conflict").CurrentWalk(context.Background())
	require.ErrorContains(t, err, "walk already in progress")
}

func TestHTTPAPIHonoursContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewHTTPAPI("http://127.0.0.1:1", "t", "p").CurrentWalk(ctx)
	require.ErrorIs(t, err, context.Canceled)

	slow := fiber.New(fiber.Config{DisableStartupMessage: true})
	slow.Get("/walks/current", func(c *fiber.Ctx) error {
		time.Sleep(500 * time.Millisecond)
		return c.JSON(nil)
	})
	base := serveStub(t, slow)

	ctx, cancel = context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = NewHTTPAPI(base, "t", "p").CurrentWalk(ctx)
	require.Error(t, err)
}
