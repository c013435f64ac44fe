package web

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/slugpad/slugpad/internal/auth"
	"github.com/slugpad/slugpad/internal/errs"
	"github.com/slugpad/slugpad/internal/notes"
)

// SuccessURL is where successful note mutations redirect to.
const SuccessURL = "/done/"

// WebHandler provides HTTP handlers for the web UI.
type WebHandler struct {
	renderer       *Renderer
	notesService   *notes.Service
	userService    *auth.UserService
	sessionService *auth.SessionService
	log            *slog.Logger
}

// NewWebHandler creates a new web handler.
func NewWebHandler(
	renderer *Renderer,
	notesService *notes.Service,
	userService *auth.UserService,
	sessionService *auth.SessionService,
	log *slog.Logger,
) *WebHandler {
	return &WebHandler{
		renderer:       renderer,
		notesService:   notesService,
		userService:    userService,
		sessionService: sessionService,
		log:            log,
	}
}

// RegisterRoutes registers all web UI routes on the given mux. rateLimit is
// applied inside the auth middleware so it sees the authenticated user.
func (h *WebHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware *auth.Middleware, rateLimit func(http.Handler) http.Handler) {
	protected := func(handler http.HandlerFunc) http.Handler {
		return authMiddleware.RequireAuth(rateLimit(handler))
	}

	mux.HandleFunc("GET /health", h.HandleHealth)

	// Landing page
	mux.Handle("GET /{$}", authMiddleware.OptionalAuth(http.HandlerFunc(h.HandleLanding)))

	// Accounts
	mux.Handle("GET /login", authMiddleware.OptionalAuth(http.HandlerFunc(h.HandleLoginPage)))
	mux.HandleFunc("POST /login", h.HandleLogin)
	mux.HandleFunc("GET /register", h.HandleRegisterPage)
	mux.HandleFunc("POST /register", h.HandleRegister)
	mux.HandleFunc("POST /logout", h.HandleLogout)

	// Success page targeted by mutation redirects
	mux.Handle("GET /done/{$}", protected(h.HandleDone))

	// Notes CRUD (auth required - anonymous callers are redirected to login)
	mux.Handle("GET /notes", protected(h.HandleNotesList))
	mux.Handle("GET /notes/add", protected(h.HandleAddNotePage))
	mux.Handle("POST /notes/add", protected(h.HandleCreateNote))
	mux.Handle("GET /notes/{slug}", protected(h.HandleViewNote))
	mux.Handle("GET /notes/{slug}/edit", protected(h.HandleEditNotePage))
	mux.Handle("POST /notes/{slug}/edit", protected(h.HandleUpdateNote))
	mux.Handle("POST /notes/{slug}/delete", protected(h.HandleDeleteNote))
	mux.Handle("DELETE /notes/{slug}/delete", protected(h.HandleDeleteNote))
}

// PageData contains common data passed to all templates.
type PageData struct {
	Title        string
	User         *auth.User
	FlashMessage string
	FlashType    string // "success", "error", "info"
	Error        string
}

// LoginPageData contains data for the login page.
type LoginPageData struct {
	PageData
	Email    string
	ReturnTo string
}

// RegisterPageData contains data for the register page.
type RegisterPageData struct {
	PageData
	Email string
}

// NotesListData contains data for the notes list page.
type NotesListData struct {
	PageData
	Notes []notes.Note
}

// NoteViewData contains data for the note detail page.
type NoteViewData struct {
	PageData
	Note *notes.Note
}

// NoteFormData contains data for the add/edit note form page.
type NoteFormData struct {
	PageData
	Form   NoteForm
	IsEdit bool
	Action string
}

// ErrorPageData contains data for the error page.
type ErrorPageData struct {
	PageData
	Code    int
	Message string
}

// Handler implementations

// HandleHealth handles GET /health - liveness probe.
func (h *WebHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte("ok"))
}

// HandleLanding handles GET / - shows landing page, or redirects to notes if
// logged in.
func (h *WebHandler) HandleLanding(w http.ResponseWriter, r *http.Request) {
	if auth.IsAuthenticated(r.Context()) {
		http.Redirect(w, r, "/notes", http.StatusFound)
		return
	}

	data := PageData{Title: "Notes with memorable links"}
	if err := h.renderer.Render(w, "landing.html", data); err != nil {
		h.renderFailure(w, err)
	}
}

// HandleLoginPage handles GET /login - shows the login page.
func (h *WebHandler) HandleLoginPage(w http.ResponseWriter, r *http.Request) {
	if auth.IsAuthenticated(r.Context()) {
		http.Redirect(w, r, "/notes", http.StatusFound)
		return
	}

	data := LoginPageData{
		PageData: PageData{Title: "Sign In"},
		ReturnTo: r.URL.Query().Get("return_to"),
	}
	if err := h.renderer.Render(w, "auth/login.html", data); err != nil {
		h.renderFailure(w, err)
	}
}

// HandleLogin handles POST /login - verifies credentials and starts a session.
func (h *WebHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderer.RenderError(w, http.StatusBadRequest, "Invalid form data")
		return
	}

	email := r.FormValue("email")
	password := r.FormValue("password")
	returnTo := r.FormValue("return_to")

	user, err := h.userService.VerifyLogin(r.Context(), email, password)
	if err != nil {
		data := LoginPageData{
			PageData: PageData{Title: "Sign In", Error: "Invalid email or password."},
			Email:    email,
			ReturnTo: returnTo,
		}
		if err := h.renderer.RenderStatus(w, http.StatusOK, "auth/login.html", data); err != nil {
			h.renderFailure(w, err)
		}
		return
	}

	h.startSession(w, r, user.ID, returnTo)
}

// HandleRegisterPage handles GET /register - shows registration page.
func (h *WebHandler) HandleRegisterPage(w http.ResponseWriter, r *http.Request) {
	data := RegisterPageData{PageData: PageData{Title: "Create Account"}}
	if err := h.renderer.Render(w, "auth/register.html", data); err != nil {
		h.renderFailure(w, err)
	}
}

// HandleRegister handles POST /register - creates an account and signs in.
func (h *WebHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderer.RenderError(w, http.StatusBadRequest, "Invalid form data")
		return
	}

	email := r.FormValue("email")
	password := r.FormValue("password")

	user, err := h.userService.Register(r.Context(), email, password)
	if err != nil {
		message := "Registration failed."
		switch {
		case errors.Is(err, auth.ErrAccountExists):
			message = "An account with that email already exists."
		case errors.Is(err, auth.ErrWeakPassword):
			message = "Password must be at least 8 characters."
		case errors.Is(err, auth.ErrInvalidEmail):
			message = "Please enter a valid email address."
		default:
			h.log.Error("register failed", slog.String("error", err.Error()))
		}
		data := RegisterPageData{
			PageData: PageData{Title: "Create Account", Error: message},
			Email:    email,
		}
		if err := h.renderer.RenderStatus(w, http.StatusOK, "auth/register.html", data); err != nil {
			h.renderFailure(w, err)
		}
		return
	}

	h.startSession(w, r, user.ID, "")
}

// HandleLogout handles POST /logout - ends the session.
func (h *WebHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if sessionID, err := auth.GetFromRequest(r); err == nil {
		_ = h.sessionService.Delete(r.Context(), sessionID)
	}
	auth.ClearCookie(w)
	http.Redirect(w, r, "/login", http.StatusFound)
}

// HandleDone handles GET /done/ - confirmation page after a mutation.
func (h *WebHandler) HandleDone(w http.ResponseWriter, r *http.Request) {
	data := PageData{
		Title:        "Done",
		User:         auth.GetUser(r.Context()),
		FlashMessage: "Saved.",
		FlashType:    "success",
	}
	if err := h.renderer.Render(w, "done.html", data); err != nil {
		h.renderFailure(w, err)
	}
}

// HandleNotesList handles GET /notes - the author's own notes.
func (h *WebHandler) HandleNotesList(w http.ResponseWriter, r *http.Request) {
	userID := auth.GetUserID(r.Context())

	list, err := h.notesService.ListByAuthor(r.Context(), userID)
	if err != nil {
		h.log.Error("list notes failed", slog.String("error", err.Error()))
		h.renderer.RenderError(w, http.StatusInternalServerError, "Failed to load notes")
		return
	}

	data := NotesListData{
		PageData: PageData{Title: "My Notes", User: auth.GetUser(r.Context())},
		Notes:    list,
	}
	if err := h.renderer.Render(w, "notes/list.html", data); err != nil {
		h.renderFailure(w, err)
	}
}

// HandleAddNotePage handles GET /notes/add - shows the empty note form.
func (h *WebHandler) HandleAddNotePage(w http.ResponseWriter, r *http.Request) {
	data := NoteFormData{
		PageData: PageData{Title: "Add Note", User: auth.GetUser(r.Context())},
		Form:     NoteForm{Errors: map[string]string{}},
		Action:   "/notes/add",
	}
	if err := h.renderer.Render(w, "notes/form.html", data); err != nil {
		h.renderFailure(w, err)
	}
}

// HandleCreateNote handles POST /notes/add - creates a note and redirects to
// the success page. Validation failures re-render the form with field errors;
// nothing is persisted in that case.
func (h *WebHandler) HandleCreateNote(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderer.RenderError(w, http.StatusBadRequest, "Invalid form data")
		return
	}

	form := NoteFormFromRequest(r)
	if !form.Validate() {
		h.renderNoteForm(w, r, form, false, "/notes/add")
		return
	}

	_, err := h.notesService.Create(r.Context(), notes.CreateNoteParams{
		Title:    form.Title,
		Text:     form.Text,
		Slug:     form.Slug,
		AuthorID: auth.GetUserID(r.Context()),
	})
	if err != nil {
		var conflict *notes.SlugConflictError
		if errors.As(err, &conflict) {
			form.SetSlugConflict(conflict)
			h.renderNoteForm(w, r, form, false, "/notes/add")
			return
		}
		if errs.CodeOf(err) == errs.InvalidArgument {
			h.renderer.RenderError(w, http.StatusBadRequest, errs.MessageOf(err))
			return
		}
		h.log.Error("create note failed", slog.String("error", err.Error()))
		h.renderer.RenderError(w, http.StatusInternalServerError, "Failed to create note")
		return
	}

	http.Redirect(w, r, SuccessURL, http.StatusFound)
}

// HandleViewNote handles GET /notes/{slug} - shows the author's note. A note
// owned by someone else renders the same 404 as a missing one.
func (h *WebHandler) HandleViewNote(w http.ResponseWriter, r *http.Request) {
	note, ok := h.loadOwnNote(w, r)
	if !ok {
		return
	}

	data := NoteViewData{
		PageData: PageData{Title: note.Title, User: auth.GetUser(r.Context())},
		Note:     note,
	}
	if err := h.renderer.Render(w, "notes/view.html", data); err != nil {
		h.renderFailure(w, err)
	}
}

// HandleEditNotePage handles GET /notes/{slug}/edit - shows the edit form.
func (h *WebHandler) HandleEditNotePage(w http.ResponseWriter, r *http.Request) {
	note, ok := h.loadOwnNote(w, r)
	if !ok {
		return
	}

	form := NoteForm{
		Title:  note.Title,
		Text:   note.Text,
		Slug:   note.Slug,
		Errors: map[string]string{},
	}
	h.renderNoteForm(w, r, form, true, "/notes/"+url.PathEscape(note.Slug)+"/edit")
}

// HandleUpdateNote handles POST /notes/{slug}/edit - updates title/text of
// the author's note. Non-authors get 404 and the record stays unmodified.
func (h *WebHandler) HandleUpdateNote(w http.ResponseWriter, r *http.Request) {
	slug := r.PathValue("slug")

	if err := r.ParseForm(); err != nil {
		h.renderer.RenderError(w, http.StatusBadRequest, "Invalid form data")
		return
	}

	form := NoteFormFromRequest(r)
	form.Slug = slug // slug is immutable; the URL wins over the form value
	if form.Title == "" || strings.TrimSpace(form.Text) == "" {
		form.Validate()
		h.renderNoteForm(w, r, form, true, "/notes/"+url.PathEscape(slug)+"/edit")
		return
	}

	_, err := h.notesService.Update(r.Context(), slug, auth.GetUserID(r.Context()), notes.UpdateNoteParams{
		Title: form.Title,
		Text:  form.Text,
	})
	if err != nil {
		if errs.IsNotFound(err) {
			h.renderer.RenderError(w, http.StatusNotFound, "Note not found")
			return
		}
		h.log.Error("update note failed", slog.String("error", err.Error()))
		h.renderer.RenderError(w, http.StatusInternalServerError, "Failed to update note")
		return
	}

	http.Redirect(w, r, SuccessURL, http.StatusFound)
}

// HandleDeleteNote handles POST and DELETE /notes/{slug}/delete - removes the
// author's note. Non-authors get 404 and the record count is unchanged.
func (h *WebHandler) HandleDeleteNote(w http.ResponseWriter, r *http.Request) {
	slug := r.PathValue("slug")

	err := h.notesService.Delete(r.Context(), slug, auth.GetUserID(r.Context()))
	if err != nil {
		if errs.IsNotFound(err) {
			h.renderer.RenderError(w, http.StatusNotFound, "Note not found")
			return
		}
		h.log.Error("delete note failed", slog.String("error", err.Error()))
		h.renderer.RenderError(w, http.StatusInternalServerError, "Failed to delete note")
		return
	}

	http.Redirect(w, r, SuccessURL, http.StatusFound)
}

// Helpers

// loadOwnNote resolves {slug} to the authenticated user's note, rendering a
// 404 page and returning ok=false for missing or foreign notes.
func (h *WebHandler) loadOwnNote(w http.ResponseWriter, r *http.Request) (*notes.Note, bool) {
	slug := r.PathValue("slug")

	note, err := h.notesService.GetBySlug(r.Context(), slug, auth.GetUserID(r.Context()))
	if err != nil {
		if errs.IsNotFound(err) || errs.CodeOf(err) == errs.InvalidArgument {
			h.renderer.RenderError(w, http.StatusNotFound, "Note not found")
		} else {
			h.log.Error("load note failed", slog.String("error", err.Error()))
			h.renderer.RenderError(w, http.StatusInternalServerError, "Failed to load note")
		}
		return nil, false
	}
	return note, true
}

func (h *WebHandler) renderNoteForm(w http.ResponseWriter, r *http.Request, form NoteForm, isEdit bool, action string) {
	title := "Add Note"
	if isEdit {
		title = "Edit Note"
	}
	data := NoteFormData{
		PageData: PageData{Title: title, User: auth.GetUser(r.Context())},
		Form:     form,
		IsEdit:   isEdit,
		Action:   action,
	}
	// Validation failures re-render the form with HTTP 200, the form-library
	// convention: the page loads, the errors are in the document.
	if err := h.renderer.RenderStatus(w, http.StatusOK, "notes/form.html", data); err != nil {
		h.renderFailure(w, err)
	}
}

func (h *WebHandler) startSession(w http.ResponseWriter, r *http.Request, userID, returnTo string) {
	sessionID, err := h.sessionService.Create(r.Context(), userID)
	if err != nil {
		h.log.Error("create session failed", slog.String("error", err.Error()))
		h.renderer.RenderError(w, http.StatusInternalServerError, "Failed to sign in")
		return
	}

	auth.SetCookie(w, sessionID, h.sessionService.Duration())

	target := "/notes"
	if strings.HasPrefix(returnTo, "/") && !strings.HasPrefix(returnTo, "//") {
		target = returnTo
	}
	http.Redirect(w, r, target, http.StatusFound)
}

func (h *WebHandler) renderFailure(w http.ResponseWriter, err error) {
	h.log.Error("render failed", slog.String("error", err.Error()))
	http.Error(w, "Failed to render page", http.StatusInternalServerError)
}
