// Package supabasetest is an in-process fake of the PostgREST and GoTrue endpoints used by the supabase package.
package supabasetest

import (
	"crypto/rand"
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/shubhammm008/Infosys-Team5/core"
)

const AnonKey = "test-anon-key"

type (
	Server struct {
		*httptest.Server
		e *echo.Echo

		mu       sync.Mutex
		tables   map[string][]map[string]interface{}
		users    map[string]*account // by email
		codes    map[string]otp      // by email
		sessions map[string]string   // access token -> user id
		now      func() time.Time
		codeTTL  time.Duration
	}

	account struct {
		ID        string
		Email     string
		Password  string
		Confirmed bool
		Metadata  map[string]interface{}
	}

	otp struct {
		Code      string
		ExpiresAt time.Time
	}
)

// NewServer starts a fake project with an empty table for every relational table name.
// Close it when done.
func NewServer() *Server {
	s := &Server{
		e:        echo.New(),
		tables:   make(map[string][]map[string]interface{}),
		users:    make(map[string]*account),
		codes:    make(map[string]otp),
		sessions: make(map[string]string),
		now:      time.Now,
		codeTTL:  time.Hour,
	}
	for _, t := range core.Tables {
		s.tables[t.Relational()] = nil
	}
	s.e.HideBanner = true
	s.e.HidePort = true
	s.e.Use(s.requireAPIKey)

	s.e.GET("/rest/v1/:table", s.selectRows)
	s.e.POST("/rest/v1/:table", s.insertRows)
	s.e.PATCH("/rest/v1/:table", s.updateRows)
	s.e.DELETE("/rest/v1/:table", s.deleteRows)

	s.e.POST("/auth/v1/token", s.token)
	s.e.POST("/auth/v1/signup", s.signUp)
	s.e.POST("/auth/v1/otp", s.sendOTP)
	s.e.POST("/auth/v1/verify", s.verify)
	s.e.GET("/auth/v1/user", s.getUser)
	s.e.PUT("/auth/v1/user", s.updateUser)
	s.e.POST("/auth/v1/logout", s.logout)

	s.Server = httptest.NewServer(s.e)
	return s
}

// Code returns the last one-time code sent to email.
func (s *Server) Code(email string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.codes[strings.ToLower(email)].Code
}

// ExpireCodes makes every outstanding one-time code expired.
func (s *Server) ExpireCodes() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for email, c := range s.codes {
		c.ExpiresAt = s.now().Add(-time.Second)
		s.codes[email] = c
	}
}

// AddAccount registers a confirmed account and returns its id.
func (s *Server) AddAccount(email, password string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	acc := &account{ID: uuid.NewString(), Email: strings.ToLower(email), Password: password, Confirmed: true}
	s.users[acc.Email] = acc
	return acc.ID
}

// Rows returns a copy of a table's rows.
func (s *Server) Rows(table string) []map[string]interface{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]map[string]interface{}, 0, len(s.tables[table]))
	for _, row := range s.tables[table] {
		out = append(out, copyRow(row))
	}
	return out
}

// Sessions counts the live sessions.
func (s *Server) Sessions() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

func (s *Server) requireAPIKey(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if c.Request().Header.Get("apikey") != AnonKey {
			return c.JSON(http.StatusUnauthorized, echo.Map{"message": "Invalid API key"})
		}
		return next(c)
	}
}

func copyRow(row map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(row))
	for k, v := range row {
		out[k] = v
	}
	return out
}

// decode reads the JSON body only, leaving path params out.
func decode(c echo.Context, v interface{}) error {
	return json.NewDecoder(c.Request().Body).Decode(v)
}

func pgError(c echo.Context, status int, code, msg string) error {
	return c.JSON(status, echo.Map{"code": code, "message": msg, "details": nil, "hint": nil})
}

func authError(c echo.Context, status int, code, msg string) error {
	return c.JSON(status, echo.Map{"code": status, "error_code": code, "msg": msg})
}

// --- PostgREST

type filter struct {
	embed string // empty for the table's own columns
	field string
	op    string
}

func parseFilters(c echo.Context) []filter {
	var filters []filter
	for key, vals := range c.QueryParams() {
		if key == "select" || len(vals) == 0 {
			continue
		}
		f := filter{field: key, op: vals[0]}
		if i := strings.IndexByte(key, '.'); i > 0 {
			f.embed, f.field = key[:i], key[i+1:]
		}
		filters = append(filters, f)
	}
	return filters
}

func matchOp(v interface{}, op string) bool {
	switch {
	case op == "is.null":
		return v == nil
	case op == "is.true":
		return v == true
	case op == "is.false":
		return v == false
	case strings.HasPrefix(op, "eq."):
		return v != nil && fmt.Sprint(v) == strings.TrimPrefix(op, "eq.")
	}
	return false
}

// innerEmbed returns the table named in select=*,<table>!inner(...).
func innerEmbed(sel string) string {
	for _, part := range strings.Split(sel, ",") {
		if i := strings.Index(part, "!inner("); i > 0 {
			return part[:i]
		}
	}
	return ""
}

// foreignKey is the column of an embedded table pointing at parent: courses -> course_id.
func foreignKey(parent string) string {
	return strings.TrimSuffix(parent, "s") + "_id"
}

func (s *Server) matching(table string, filters []filter) ([]int, bool) {
	rows, ok := s.tables[table]
	if !ok {
		return nil, false
	}
	var idx []int
rows:
	for i, row := range rows {
		for _, f := range filters {
			if f.embed == "" {
				if !matchOp(row[f.field], f.op) {
					continue rows
				}
				continue
			}
			found := false
			for _, rel := range s.tables[f.embed] {
				if rel[foreignKey(table)] == row["id"] && matchOp(rel[f.field], f.op) {
					found = true
					break
				}
			}
			if !found {
				continue rows
			}
		}
		idx = append(idx, i)
	}
	return idx, true
}

func unknownTable(c echo.Context, table string) error {
	return pgError(c, http.StatusNotFound, "42P01", fmt.Sprintf("relation \"public.%s\" does not exist", table))
}

func (s *Server) selectRows(c echo.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	table := c.Param("table")
	idx, ok := s.matching(table, parseFilters(c))
	if !ok {
		return unknownTable(c, table)
	}
	embed := innerEmbed(c.QueryParam("select"))
	out := make([]map[string]interface{}, 0, len(idx))
	for _, i := range idx {
		row := copyRow(s.tables[table][i])
		if embed != "" {
			var related []map[string]interface{}
			for _, rel := range s.tables[embed] {
				if rel[foreignKey(table)] == row["id"] {
					related = append(related, copyRow(rel))
				}
			}
			row[embed] = related
		}
		out = append(out, row)
	}
	return c.JSON(http.StatusOK, out)
}

func (s *Server) insertRows(c echo.Context) error {
	var raw json.RawMessage
	if err := decode(c, &raw); err != nil {
		return pgError(c, http.StatusBadRequest, "PGRST102", "invalid body")
	}
	var rows []map[string]interface{}
	if err := json.Unmarshal(raw, &rows); err != nil {
		var row map[string]interface{}
		if err := json.Unmarshal(raw, &row); err != nil {
			return pgError(c, http.StatusBadRequest, "PGRST102", "invalid body")
		}
		rows = []map[string]interface{}{row}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	table := c.Param("table")
	existing, ok := s.tables[table]
	if !ok {
		return unknownTable(c, table)
	}
	for _, row := range rows {
		if _, ok := row["id"]; !ok {
			row["id"] = uuid.NewString()
		}
		for _, ex := range existing {
			if ex["id"] == row["id"] {
				return pgError(c, http.StatusConflict, "23505", "duplicate key value violates unique constraint")
			}
		}
		for k, v := range row {
			if v == nil {
				delete(row, k)
			}
		}
		existing = append(existing, row)
	}
	s.tables[table] = existing
	return c.JSON(http.StatusCreated, rows)
}

func (s *Server) updateRows(c echo.Context) error {
	var patch map[string]interface{}
	if err := decode(c, &patch); err != nil {
		return pgError(c, http.StatusBadRequest, "PGRST102", "invalid body")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	table := c.Param("table")
	idx, ok := s.matching(table, parseFilters(c))
	if !ok {
		return unknownTable(c, table)
	}
	out := make([]map[string]interface{}, 0, len(idx))
	for _, i := range idx {
		row := s.tables[table][i]
		for k, v := range patch {
			if v == nil {
				delete(row, k)
				continue
			}
			row[k] = v
		}
		out = append(out, copyRow(row))
	}
	return c.JSON(http.StatusOK, out)
}

func (s *Server) deleteRows(c echo.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	table := c.Param("table")
	idx, ok := s.matching(table, parseFilters(c))
	if !ok {
		return unknownTable(c, table)
	}
	removed := make(map[int]bool, len(idx))
	for _, i := range idx {
		removed[i] = true
	}
	out := make([]map[string]interface{}, 0, len(idx))
	kept := make([]map[string]interface{}, 0, len(s.tables[table]))
	for i, row := range s.tables[table] {
		if removed[i] {
			out = append(out, row)
			continue
		}
		kept = append(kept, row)
	}
	s.tables[table] = kept
	return c.JSON(http.StatusOK, out)
}

// --- GoTrue

type credentials struct {
	Email      string                 `json:"email"`
	Password   string                 `json:"password"`
	Token      string                 `json:"token"`
	Type       string                 `json:"type"`
	CreateUser bool                   `json:"create_user"`
	Data       map[string]interface{} `json:"data"`
}

func (s *Server) newSessionLocked(acc *account) echo.Map {
	token := "at-" + uuid.NewString()
	s.sessions[token] = acc.ID
	return echo.Map{
		"access_token":  token,
		"refresh_token": "rt-" + uuid.NewString(),
		"token_type":    "bearer",
		"expires_in":    3600,
		"user":          echo.Map{"id": acc.ID, "email": acc.Email},
	}
}

func (s *Server) token(c echo.Context) error {
	if c.QueryParam("grant_type") != "password" {
		return authError(c, http.StatusBadRequest, "validation_failed", "unsupported grant type")
	}
	var cr credentials
	if err := decode(c, &cr); err != nil {
		return authError(c, http.StatusBadRequest, "validation_failed", "invalid body")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	acc, ok := s.users[strings.ToLower(cr.Email)]
	if !ok || acc.Password == "" || acc.Password != cr.Password {
		return authError(c, http.StatusBadRequest, "invalid_credentials", "Invalid login credentials")
	}
	if !acc.Confirmed {
		return authError(c, http.StatusBadRequest, "email_not_confirmed", "Email not confirmed")
	}
	return c.JSON(http.StatusOK, s.newSessionLocked(acc))
}

func (s *Server) signUp(c echo.Context) error {
	var cr credentials
	if err := decode(c, &cr); err != nil {
		return authError(c, http.StatusBadRequest, "validation_failed", "invalid body")
	}
	if len(cr.Password) < core.MinimumPasswordLength {
		return authError(c, http.StatusUnprocessableEntity, "weak_password", "Password should be at least 6 characters.")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	email := strings.ToLower(cr.Email)
	if _, exists := s.users[email]; exists {
		return authError(c, http.StatusUnprocessableEntity, "user_already_exists", "User already registered")
	}
	acc := &account{ID: uuid.NewString(), Email: email, Password: cr.Password, Confirmed: true, Metadata: cr.Data}
	s.users[email] = acc
	return c.JSON(http.StatusOK, s.newSessionLocked(acc))
}

func randomCode() string {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		panic(err)
	}
	return fmt.Sprintf("%06d", n.Int64())
}

func (s *Server) sendOTP(c echo.Context) error {
	var cr credentials
	if err := decode(c, &cr); err != nil {
		return authError(c, http.StatusBadRequest, "validation_failed", "invalid body")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	email := strings.ToLower(cr.Email)
	if _, exists := s.users[email]; !exists {
		if !cr.CreateUser {
			return authError(c, http.StatusBadRequest, "otp_disabled", "Signups not allowed for otp")
		}
		s.users[email] = &account{ID: uuid.NewString(), Email: email, Metadata: cr.Data}
	}
	s.codes[email] = otp{Code: randomCode(), ExpiresAt: s.now().Add(s.codeTTL)}
	return c.JSON(http.StatusOK, echo.Map{})
}

func (s *Server) verify(c echo.Context) error {
	var cr credentials
	if err := decode(c, &cr); err != nil {
		return authError(c, http.StatusBadRequest, "validation_failed", "invalid body")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	email := strings.ToLower(cr.Email)
	code, ok := s.codes[email]
	switch {
	case !ok || code.Code != cr.Token:
		return authError(c, http.StatusForbidden, "otp_expired", "Token has expired or is invalid")
	case s.now().After(code.ExpiresAt):
		delete(s.codes, email)
		return authError(c, http.StatusForbidden, "otp_expired", "Token has expired")
	}
	delete(s.codes, email)
	acc := s.users[email]
	acc.Confirmed = true
	return c.JSON(http.StatusOK, s.newSessionLocked(acc))
}

func (s *Server) bearerLocked(c echo.Context) (*account, bool) {
	token := strings.TrimPrefix(c.Request().Header.Get("Authorization"), "Bearer ")
	id, ok := s.sessions[token]
	if !ok {
		return nil, false
	}
	for _, acc := range s.users {
		if acc.ID == id {
			return acc, true
		}
	}
	return nil, false
}

func (s *Server) getUser(c echo.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	acc, ok := s.bearerLocked(c)
	if !ok {
		return authError(c, http.StatusUnauthorized, "bad_jwt", "invalid JWT: unable to parse or verify signature")
	}
	return c.JSON(http.StatusOK, echo.Map{"id": acc.ID, "email": acc.Email})
}

func (s *Server) updateUser(c echo.Context) error {
	var cr credentials
	if err := decode(c, &cr); err != nil {
		return authError(c, http.StatusBadRequest, "validation_failed", "invalid body")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	acc, ok := s.bearerLocked(c)
	if !ok {
		return authError(c, http.StatusUnauthorized, "bad_jwt", "invalid JWT: unable to parse or verify signature")
	}
	if cr.Password != "" {
		acc.Password = cr.Password
	}
	return c.JSON(http.StatusOK, echo.Map{"id": acc.ID, "email": acc.Email})
}

func (s *Server) logout(c echo.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	token := strings.TrimPrefix(c.Request().Header.Get("Authorization"), "Bearer ")
	delete(s.sessions, token)
	return c.NoContent(http.StatusNoContent)
}
