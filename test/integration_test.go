package test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/gavv/httpexpect/v2"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/stretchr/testify/assert"

	"github.com/totegamma/personagens"
	"github.com/totegamma/personagens/client"
	"github.com/totegamma/personagens/core"
	"github.com/totegamma/personagens/internal/testutil"
	"github.com/totegamma/personagens/x/character"
)

var baseURL string

func TestMain(m *testing.M) {

	baseURL = os.Getenv("PERSONAGENS_BASE_URL")
	if baseURL != "" {
		m.Run()
		return
	}

	db, cleanup_db := testutil.CreateDB()
	defer cleanup_db()

	rdb, cleanup_rdb := testutil.CreateRDB()
	defer cleanup_rdb()

	mc, cleanup_mc := testutil.CreateMC()
	defer cleanup_mc()

	e := echo.New()
	e.Pre(middleware.RemoveTrailingSlash())
	character.Mount(e.Group(core.CharacterBasePath), personagens.SetupCharacterHandler(db, rdb, mc))

	server := httptest.NewServer(e)
	defer server.Close()
	baseURL = server.URL

	m.Run()
}

func strPtr(s string) *string { return &s }
func int64Ptr(i int64) *int64 { return &i }

// scenario carries state between ordered steps
type scenario struct {
	id uint64
}

type step struct {
	name string
	run  func(t *testing.T, s *scenario)
}

func runSteps(t *testing.T, steps []step) {
	s := &scenario{}
	for _, st := range steps {
		if !t.Run(st.name, func(t *testing.T) { st.run(t, s) }) {
			t.Fatalf("step %q failed, aborting scenario", st.name)
		}
	}
}

func TestCharacterScenario(t *testing.T) {
	e := httpexpect.Default(t, baseURL)
	path := core.CharacterBasePath

	runSteps(t, []step{
		{"CreateWithoutNome", func(t *testing.T, s *scenario) {
			e.POST(path).
				WithJSON(map[string]any{"cpf": 123, "serie": "Aneis do Poder"}).
				Expect().
				Status(http.StatusBadRequest).
				JSON().Object().
				Value("nome").NotNull()
		}},
		{"Create", func(t *testing.T, s *scenario) {
			obj := e.POST(path).
				WithJSON(map[string]any{
					"cpf":            123,
					"nome":           "Galadriel",
					"dataNascimento": "20-01-1900",
					"serie":          "Aneis do Poder",
				}).
				Expect().
				Status(http.StatusCreated).
				JSON().Object()

			obj.Value("id").NotNull()
			s.id = uint64(obj.Value("id").Number().Raw())
		}},
		{"ListOne", func(t *testing.T, s *scenario) {
			e.GET(path).
				Expect().
				Status(http.StatusOK).
				JSON().Array().
				Length().IsEqual(1)
		}},
		{"GetByID", func(t *testing.T, s *scenario) {
			e.GET(path+"/{id}", s.id).
				Expect().
				Status(http.StatusOK).
				JSON().Object().
				HasValue("cpf", 123).
				HasValue("nome", "Galadriel")
		}},
		{"Delete", func(t *testing.T, s *scenario) {
			e.DELETE(path+"/{id}", s.id).
				Expect().
				Status(http.StatusNoContent).
				NoContent()
		}},
		{"ListEmpty", func(t *testing.T, s *scenario) {
			e.GET(path).
				Expect().
				Status(http.StatusOK).
				JSON().Array().
				IsEmpty()
		}},
		{"GetDeleted", func(t *testing.T, s *scenario) {
			e.GET(path+"/{id}", s.id).
				Expect().
				Status(http.StatusNotFound)
		}},
		{"DeleteDeleted", func(t *testing.T, s *scenario) {
			e.DELETE(path+"/{id}", s.id).
				Expect().
				Status(http.StatusNotFound)
		}},
	})
}

func TestCharacterScenarioWithClient(t *testing.T) {
	c := client.NewClient(baseURL)
	ctx := context.Background()

	runSteps(t, []step{
		{"CreateWithoutNome", func(t *testing.T, s *scenario) {
			_, err := c.Create(ctx, core.CharacterInput{CPF: int64Ptr(123), Serie: strPtr("Aneis do Poder")})

			var validationErr core.ErrorValidation
			if assert.True(t, errors.As(err, &validationErr)) {
				assert.NotEmpty(t, validationErr.Fields["nome"])
			}
		}},
		{"Create", func(t *testing.T, s *scenario) {
			created, err := c.Create(ctx, core.CharacterInput{
				CPF:            int64Ptr(123),
				Nome:           strPtr("Galadriel"),
				DataNascimento: strPtr("20-01-1900"),
				Serie:          strPtr("Aneis do Poder"),
			})
			if assert.NoError(t, err) {
				assert.NotZero(t, created.ID)
				s.id = created.ID
			}
		}},
		{"ListOne", func(t *testing.T, s *scenario) {
			list, err := c.List(ctx)
			assert.NoError(t, err)
			assert.Len(t, list, 1)
		}},
		{"Update", func(t *testing.T, s *scenario) {
			updated, err := c.Update(ctx, s.id, core.CharacterInput{
				CPF:   int64Ptr(123),
				Nome:  strPtr("Galadriel"),
				Serie: strPtr("O Senhor dos Aneis"),
			})
			if assert.NoError(t, err) {
				assert.Equal(t, s.id, updated.ID)
				assert.Equal(t, "O Senhor dos Aneis", *updated.Serie)
			}
		}},
		{"GetByID", func(t *testing.T, s *scenario) {
			got, err := c.Get(ctx, s.id)
			if assert.NoError(t, err) {
				assert.Equal(t, int64(123), *got.CPF)
				assert.Equal(t, "Galadriel", got.Nome)
				assert.Equal(t, "O Senhor dos Aneis", *got.Serie)
			}
		}},
		{"Delete", func(t *testing.T, s *scenario) {
			assert.NoError(t, c.Delete(ctx, s.id))
		}},
		{"ListEmpty", func(t *testing.T, s *scenario) {
			list, err := c.List(ctx)
			assert.NoError(t, err)
			assert.Empty(t, list)
		}},
		{"GetDeleted", func(t *testing.T, s *scenario) {
			_, err := c.Get(ctx, s.id)
			assert.True(t, errors.Is(err, core.ErrorNotFound{}))
		}},
	})
}
