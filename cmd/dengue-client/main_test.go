package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Tom21-xd/Uceva-sub002/internal/models"
	"github.com/Tom21-xd/Uceva-sub002/internal/session"
)

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func fakeBackend(t *testing.T) string {
	r := chi.NewRouter()
	r.Get("/Case", func(w http.ResponseWriter, _ *http.Request) {
		cases := make([]models.Case, 0, 30)
		for i := 1; i <= 30; i++ {
			state := "Activo"
			if i%3 == 0 {
				state = "Recuperado"
			}
			cases = append(cases, models.Case{ID: i, StateName: state, PatientName: fmt.Sprintf("Paciente %d", i)})
		}
		writeJSON(w, cases)
	})
	r.Get("/Case/states", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, []models.CaseState{{ID: 1, Name: "Activo"}, {ID: 2, Name: "Recuperado"}})
	})
	r.Get("/Case/dengue-types", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, []models.DengueType{})
	})
	r.Post("/Auth/login", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, models.LoginResponse{Token: "jwt", User: models.User{ID: 1, FirstName: "Ana", LastName: "Rojas", RoleName: "Medico"}})
	})
	r.Post("/Auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body["refreshToken"] != "r1" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		writeJSON(w, models.LoginResponse{Token: "jwt", RefreshToken: "r2"})
	})
	r.Get("/User/me", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer jwt" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		writeJSON(w, models.User{ID: 1, FirstName: "Ana", LastName: "Rojas", Email: "ana@example.org", RoleName: "Medico"})
	})
	r.Post("/CaseImport/upload", func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		var mapping map[string]string
		if err := json.Unmarshal([]byte(r.FormValue("mapeo")), &mapping); err != nil || mapping["year"] != "Año" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		f, hdr, err := r.FormFile("archivo")
		if err != nil || hdr.Filename != "casos.csv" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		defer f.Close()
		raw, _ := io.ReadAll(f)
		rows := strings.Count(strings.TrimSpace(string(raw)), "\n")
		writeJSON(w, map[string]any{"success": true, "data": models.ImportResult{Total: rows, Succeeded: rows}})
	})
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv.URL
}

func cliEnv(t *testing.T, baseURL string) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("API_BASE_URL", baseURL)
	t.Setenv("SESSION_BACKEND", "memory")
	t.Setenv("CASE_PAGE_SIZE", "5")
	t.Setenv("LOG_LEVEL", "error")
}

// execute runs one invocation on a fresh command tree, like a new process would.
func execute(args ...string) (string, error) {
	var out bytes.Buffer
	cmd, cleanup := rootCmd()
	defer cleanup()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func runCLI(t *testing.T, baseURL string, args ...string) (string, error) {
	cliEnv(t, baseURL)
	return execute(args...)
}

func fileSession(t *testing.T) string {
	path := filepath.Join(t.TempDir(), "session.yaml")
	t.Setenv("SESSION_BACKEND", "file")
	t.Setenv("SESSION_PATH", path)
	return path
}

func TestLogin_SessionSurvivesNextInvocation(t *testing.T) {
	cliEnv(t, fakeBackend(t))
	fileSession(t)

	_, err := execute("login", "--email", "ana@example.org", "--password", "x")
	require.NoError(t, err)

	// /User/me answers 401 unless the token from the login is sent
	out, err := execute("whoami")
	require.NoError(t, err)
	assert.Contains(t, out, "Ana Rojas <ana@example.org>")

	_, err = execute("logout")
	require.NoError(t, err)
	_, err = execute("whoami")
	assert.Error(t, err)
}

func TestExpiredTokenIsRefreshedBeforeCommand(t *testing.T) {
	cliEnv(t, fakeBackend(t))
	path := fileSession(t)

	expired, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"exp": time.Now().Add(-time.Hour).Unix(),
	}).SignedString([]byte("test-key"))
	require.NoError(t, err)
	store := session.NewStore(session.NewFileKV(path), "dengue:session:", zap.NewNop())
	require.NoError(t, store.SaveLogin(context.Background(), models.LoginResponse{Token: expired, RefreshToken: "r1"}))

	out, err := execute("whoami")
	require.NoError(t, err)
	assert.Contains(t, out, "Ana Rojas")

	tok, err := store.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "jwt", tok)
	refresh, err := store.RefreshToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "r2", refresh)
}

func TestExpiredTokenWithoutRefreshTokenIsKept(t *testing.T) {
	cliEnv(t, fakeBackend(t))
	path := fileSession(t)

	expired, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"exp": time.Now().Add(-time.Hour).Unix(),
	}).SignedString([]byte("test-key"))
	require.NoError(t, err)
	store := session.NewStore(session.NewFileKV(path), "dengue:session:", zap.NewNop())
	require.NoError(t, store.SaveLogin(context.Background(), models.LoginResponse{Token: expired}))

	_, err = execute("whoami")
	assert.Error(t, err)
	tok, err := store.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, expired, tok)
}

func TestRun_ReleasesBackendsWhenCommandFails(t *testing.T) {
	mr := miniredis.RunT(t)
	cliEnv(t, "http://127.0.0.1:1")
	t.Setenv("SESSION_BACKEND", "redis")
	t.Setenv("REDIS_ADDR", mr.Addr())

	assert.Equal(t, 1, run([]string{"whoami"}))
	assert.Eventually(t, func() bool { return mr.CurrentConnectionCount() == 0 },
		2*time.Second, 10*time.Millisecond)
}

func TestImportRunRaw(t *testing.T) {
	url := fakeBackend(t)
	path := filepath.Join(t.TempDir(), "casos.csv")
	require.NoError(t, os.WriteFile(path, []byte("Año;Barrio\n2024;Centro\n2025;Norte\n"), 0o644))

	out, err := runCLI(t, url, "import", "run", "--raw", "--map", "barrio=", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Total: 2  Exitosos: 2  Fallidos: 0")

	_, err = runCLI(t, url, "import", "run", "--raw", "--map", "year=", "--map", "barrio=", path)
	assert.Error(t, err)
}

func TestCasesList_FilterAndPages(t *testing.T) {
	url := fakeBackend(t)

	out, err := runCLI(t, url, "cases", "list", "--state", "Recuperado", "--pages", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "Paciente 3 ")
	assert.NotContains(t, out, "Paciente 1 ")
	assert.Contains(t, out, "10 de 10 casos (Recuperado)")

	out, err = runCLI(t, url, "cases", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "5 de 30 casos (Todos)")
}

func TestLogin_ValidationMessage(t *testing.T) {
	url := fakeBackend(t)

	_, err := runCLI(t, url, "login", "--email", "no-es-correo", "--password", "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Correo electrónico inválido")

	out, err := runCLI(t, url, "login", "--email", "ana@example.org", "--password", "x")
	require.NoError(t, err)
	assert.Contains(t, out, "Bienvenido Ana Rojas (Medico)")
}

func TestRethusCheck(t *testing.T) {
	out, err := runCLI(t, "http://127.0.0.1:1", "rethus", "check", "El", "documento", "NO", "SE", "ENCUENTRA", "INSCRITO")
	require.NoError(t, err)
	assert.Contains(t, out, "No se encuentra inscrito en RETHUS")
}

func TestImportTemplateThenDetect(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plantilla.xlsx")
	_, err := runCLI(t, "http://127.0.0.1:1", "import", "template", path)
	require.NoError(t, err)
	_, err = os.Stat(path)
	require.NoError(t, err)

	out, err := runCLI(t, "http://127.0.0.1:1", "import", "detect", path)
	require.NoError(t, err)
	assert.Contains(t, out, "plantilla.xlsx")
	assert.Contains(t, out, "CAMPO")
}

func TestParseOverrides(t *testing.T) {
	got, err := parseOverrides([]string{"year=Año", " edad = ", "semana=Semana epidemiológica"})
	require.NoError(t, err)
	assert.Equal(t, [][2]string{{"year", "Año"}, {"edad", ""}, {"semana", "Semana epidemiológica"}}, got)

	_, err = parseOverrides([]string{"sin-igual"})
	assert.Error(t, err)
	_, err = parseOverrides([]string{"=columna"})
	assert.Error(t, err)
}

func TestParseAnswer(t *testing.T) {
	q, a, err := parseAnswer("3=11")
	require.NoError(t, err)
	assert.Equal(t, 3, q)
	assert.Equal(t, 11, a)

	_, _, err = parseAnswer("3")
	assert.Error(t, err)
	_, _, err = parseAnswer("x=1")
	assert.Error(t, err)
}
