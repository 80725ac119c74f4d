package walkclient

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"backend-pettopia/internal/pet"
	"backend-pettopia/internal/walk"

	"github.com/gofiber/fiber/v2"
)

const defaultTimeout = 15 * time.Second

// HTTPAPI calls the walk routes of the backend with the guardian's bearer
// token, acting as one pet account.
type HTTPAPI struct {
	baseURL      string
	token        string
	petAccountID string
	timeout      time.Duration
}

func NewHTTPAPI(baseURL, token, petAccountID string) *HTTPAPI {
	return &HTTPAPI{
		baseURL:      strings.TrimRight(baseURL, "/"),
		token:        token,
		petAccountID: petAccountID,
		timeout:      defaultTimeout,
	}
}

type errorBody struct {
	Message string `json:"message"`
}

// statusError maps an error response back to the walk error kinds.
func statusError(code int, body []byte) error {
	var eb errorBody
	msg := strings.TrimSpace(string(body))
	if json.Unmarshal(body, &eb) == nil && eb.Message != "" {
		msg = eb.Message
	}
	switch code {
	case fiber.StatusConflict:
		return fmt.Errorf("%w: %s", walk.ErrConflict, msg)
	case fiber.StatusNotFound:
		return fmt.Errorf("%w: %s", walk.ErrNotFound, msg)
	case fiber.StatusForbidden:
		return fmt.Errorf("%w: %s", walk.ErrForbidden, msg)
	case fiber.StatusBadRequest:
		return fmt.Errorf("%w: %s", walk.ErrInvalidInput, msg)
	}
	return fmt.Errorf("walk api: status %d: %s", code, msg)
}

// do sends the request and decodes a 2xx JSON body into out. The agent has
// no context support, so the deadline of ctx becomes the request timeout.
func (a *HTTPAPI) do(ctx context.Context, agent *fiber.Agent, out any) error {
	if err := ctx.Err(); err != nil {
		fiber.ReleaseAgent(agent)
		return err
	}
	timeout := a.timeout
	if dl, ok := ctx.Deadline(); ok {
		if left := time.Until(dl); left < timeout {
			timeout = left
		}
	}

	agent.Set(fiber.HeaderAuthorization, "Bearer "+a.token)
	agent.Set(pet.HeaderPetAccountID, a.petAccountID)
	agent.Timeout(timeout)
	if err := agent.Parse(); err != nil {
		fiber.ReleaseAgent(agent)
		return err
	}

	code, body, errs := agent.Bytes()
	if len(errs) > 0 {
		return errs[0]
	}
	if code < 200 || code > 299 {
		return statusError(code, body)
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal(body, out)
}

func (a *HTTPAPI) url(path string) string {
	return a.baseURL + path
}

func (a *HTTPAPI) StartWalk(ctx context.Context, in walk.StartInput) (walk.Session, error) {
	var w walk.Session
	err := a.do(ctx, fiber.Post(a.url("/walks/start")).JSON(in), &w)
	return w, err
}

func (a *HTTPAPI) UpdateLocation(ctx context.Context, id string, lat, lng float64) (walk.Session, error) {
	var w walk.Session
	body := walk.LocationInput{Latitude: &lat, Longitude: &lng}
	err := a.do(ctx, fiber.Patch(a.url("/walks/"+id+"/location")).JSON(body), &w)
	return w, err
}

func (a *HTTPAPI) AddPhoto(ctx context.Context, id, photoURL string) (walk.Session, error) {
	var w walk.Session
	err := a.do(ctx, fiber.Post(a.url("/walks/"+id+"/photos")).JSON(walk.PhotoInput{PhotoURL: photoURL}), &w)
	return w, err
}

func (a *HTTPAPI) EndWalk(ctx context.Context, id string, in walk.EndInput) (walk.Session, error) {
	var w walk.Session
	err := a.do(ctx, fiber.Post(a.url("/walks/"+id+"/end")).JSON(in), &w)
	return w, err
}

func (a *HTTPAPI) CancelWalk(ctx context.Context, id string) (walk.Session, error) {
	var w walk.Session
	err := a.do(ctx, fiber.Delete(a.url("/walks/"+id)), &w)
	return w, err
}

// CurrentWalk returns nil when the pet has no active walk.
func (a *HTTPAPI) CurrentWalk(ctx context.Context) (*walk.Session, error) {
	var w *walk.Session
	if err := a.do(ctx, fiber.Get(a.url("/walks/current")), &w); err != nil {
		return nil, err
	}
	return w, nil
}

// UploadImage posts the file to the upload endpoint and returns its URL.
func (a *HTTPAPI) UploadImage(ctx context.Context, filename string, data []byte) (string, error) {
	agent := fiber.Post(a.url("/upload/image")).
		FileData(&fiber.FormFile{Fieldname: "file", Name: filename, Content: data}).
		MultipartForm(nil)
	var out struct {
		URL string `json:"url"`
	}
	if err := a.do(ctx, agent, &out); err != nil {
		return "", err
	}
	return out.URL, nil
}
