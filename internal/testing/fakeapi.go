package testing

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/mux"

	"github.com/desertthunder/festa/internal/models"
)

// FakeUser is an account known to [FakeAPI].
type FakeUser struct {
	PW      string
	Profile models.Profile
}

// FakeAPI is an in-memory festival backend served over httptest.
//
// Listing endpoints are public but reject an invalid bearer token with 401, matching a JWT filter that
// runs ahead of every route. Mutations require a valid token.
type FakeAPI struct {
	Server *httptest.Server
	Router *mux.Router

	// PageSize is the number of records returned per page.
	PageSize int
	// TokenTTL is the lifetime of issued access tokens.
	TokenTTL time.Duration

	mu            sync.Mutex
	profileStatus int
	refreshStatus int
	users         map[string]FakeUser
	access        map[string]string
	refresh       map[string]string
	hits          map[string]int
	nextID        int64

	// Seeded records. Guarded by the fake's lock once the server is handling requests.
	Festivals    []models.Festival
	Jobs         []models.Job
	Reviews      []models.Review
	Applications []models.Application
}

// NewFakeAPI starts a [FakeAPI]. The server is closed when the test ends.
func NewFakeAPI(t *testing.T) *FakeAPI {
	t.Helper()
	f := &FakeAPI{
		PageSize: 10,
		TokenTTL: time.Hour,
		users:    map[string]FakeUser{},
		access:   map[string]string{},
		refresh:  map[string]string{},
		hits:     map[string]int{},
		nextID:   1000,
	}
	f.Router = f.routes()
	f.Server = httptest.NewServer(f.Router)
	t.Cleanup(f.Server.Close)
	return f
}

// URL is the base URL of the fake.
func (f *FakeAPI) URL() string { return f.Server.URL }

// AddUser registers an account.
func (f *FakeAPI) AddUser(id, pw string, profile models.Profile) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if profile.ID == "" {
		profile.ID = id
	}
	f.users[id] = FakeUser{PW: pw, Profile: profile}
}

// Grant issues a token pair for a registered user without going through login.
func (f *FakeAPI) Grant(t *testing.T, id string) models.TokenPair {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	pair, err := f.issue(id)
	if err != nil {
		t.Fatalf("failed to grant tokens: %v", err)
	}
	return pair
}

// Expire invalidates an access token so requests carrying it are answered with 401.
func (f *FakeAPI) Expire(accessToken string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.access, accessToken)
}

// Revoke invalidates a refresh token.
func (f *FakeAPI) Revoke(refreshToken string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.refresh, refreshToken)
}

// FailProfile makes every profile response use status. Zero restores normal responses.
func (f *FakeAPI) FailProfile(status int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.profileStatus = status
}

// FailRefresh makes every refresh response use status. Zero restores normal responses.
func (f *FakeAPI) FailRefresh(status int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refreshStatus = status
}

// Hits returns how many requests reached the named route.
func (f *FakeAPI) Hits(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.hits[name]
}

// SeedFestivals adds n festivals named "Festival 1" through "Festival n".
func (f *FakeAPI) SeedFestivals(n int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := 1; i <= n; i++ {
		f.Festivals = append(f.Festivals, models.Festival{
			ID:        int64(i),
			Name:      "Festival " + strconv.Itoa(i),
			HoldPlace: "Seoul",
			StartDate: "2025-05-01",
			EndDate:   "2025-05-03",
			Latitude:  37.5665,
			Longitude: 126.978,
		})
	}
}

func (f *FakeAPI) issue(id string) (models.TokenPair, error) {
	at, err := sign(id, f.TokenTTL)
	if err != nil {
		return models.TokenPair{}, err
	}
	rt, err := sign(id, 24*time.Hour)
	if err != nil {
		return models.TokenPair{}, err
	}
	f.access[at] = id
	f.refresh[rt] = id
	return models.TokenPair{AccessToken: at, RefreshToken: rt}, nil
}

func (f *FakeAPI) id() int64 {
	f.nextID++
	return f.nextID
}

func (f *FakeAPI) routes() *mux.Router {
	r := mux.NewRouter()
	r.Use(f.count)

	r.HandleFunc("/app/user/login", f.login).Methods(http.MethodPost).Name("login")
	r.HandleFunc("/app/user/profile", f.private(f.profile)).Methods(http.MethodGet).Name("profile")
	r.HandleFunc("/app/user/refresh-token", f.refreshToken).Methods(http.MethodPost).Name("refresh")
	r.HandleFunc("/app/user/sign-up", f.signUp).Methods(http.MethodPost).Name("signup")

	r.HandleFunc("/app/festival/list", f.public(f.festivalList)).Methods(http.MethodGet).Name("festivals")
	r.HandleFunc("/app/festival/reviews", f.public(f.reviewList)).Methods(http.MethodGet).Name("reviews")
	r.HandleFunc("/app/festival/reviews/{id:[0-9]+}", f.private(f.reviewUpdate)).Methods(http.MethodPut).Name("review-update")
	r.HandleFunc("/app/festival/reviews/{id:[0-9]+}", f.private(f.reviewDelete)).Methods(http.MethodDelete).Name("review-delete")
	r.HandleFunc("/app/festival/reviews/{id:[0-9]+}/like", f.private(f.ok)).Methods(http.MethodPost).Name("review-like")
	r.HandleFunc("/app/festival/reviews/{id:[0-9]+}/comments", f.public(f.comments)).Methods(http.MethodGet).Name("comments")
	r.HandleFunc("/app/festival/reviews/{id:[0-9]+}/comments", f.private(f.commentCreate)).Methods(http.MethodPost).Name("comment-create")
	r.HandleFunc("/app/festival/review-comments/{id:[0-9]+}", f.private(f.ok)).Methods(http.MethodPut, http.MethodDelete).Name("comment-edit")

	r.HandleFunc("/app/festival/job/list", f.public(f.jobList)).Methods(http.MethodGet).Name("jobs")
	r.HandleFunc("/app/festival/job/apply/{id:[0-9]+}/accept", f.private(f.jobAccept)).Methods(http.MethodPost).Name("job-accept")
	r.HandleFunc("/app/festival/job/{id:[0-9]+}/create", f.private(f.jobCreate)).Methods(http.MethodPost).Name("job-create")
	r.HandleFunc("/app/festival/job/{id:[0-9]+}/apply", f.private(f.jobApply)).Methods(http.MethodPost, http.MethodPut, http.MethodDelete).Name("job-apply")
	r.HandleFunc("/app/festival/job/{id:[0-9]+}/applicants", f.private(f.jobApplicants)).Methods(http.MethodGet).Name("job-applicants")
	r.HandleFunc("/app/festival/job/{id:[0-9]+}", f.private(f.jobUpdate)).Methods(http.MethodPut).Name("job-update")
	r.HandleFunc("/app/festival/job/{id:[0-9]+}", f.private(f.jobDelete)).Methods(http.MethodDelete).Name("job-delete")

	r.HandleFunc("/app/festival/{id:[0-9]+}", f.public(f.festival)).Methods(http.MethodGet).Name("festival")
	r.HandleFunc("/app/festival/{id:[0-9]+}/like", f.private(f.festivalLike)).Methods(http.MethodPost).Name("festival-like")
	r.HandleFunc("/app/festival/{id:[0-9]+}/reviews", f.public(f.festivalReviews)).Methods(http.MethodGet).Name("festival-reviews")
	r.HandleFunc("/app/festival/{id:[0-9]+}/reviews", f.private(f.reviewCreate)).Methods(http.MethodPost).Name("review-create")
	r.HandleFunc("/app/festival/{keyword}/search", f.public(f.festivalSearch)).Methods(http.MethodGet).Name("search")
	return r
}

func (f *FakeAPI) count(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if route := mux.CurrentRoute(r); route != nil {
			f.mu.Lock()
			f.hits[route.GetName()]++
			f.mu.Unlock()
		}
		next.ServeHTTP(w, r)
	})
}

type authedHandler func(w http.ResponseWriter, r *http.Request, uid string)

// holder returns the user behind the bearer token. ok is false when a token was sent but is not valid.
func (f *FakeAPI) holder(r *http.Request) (user string, sent, ok bool) {
	h := r.Header.Get("Authorization")
	if h == "" {
		return "", false, true
	}
	token, found := strings.CutPrefix(h, "Bearer ")
	if !found {
		return "", true, false
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok = f.access[token]
	return user, true, ok
}

func (f *FakeAPI) uid(user string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u, ok := f.users[user]; ok && u.Profile.UID != "" {
		return u.Profile.UID
	}
	return user
}

func (f *FakeAPI) public(h authedHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, sent, ok := f.holder(r)
		if sent && !ok {
			writeMessage(w, http.StatusUnauthorized, "invalid token")
			return
		}
		uid := ""
		if user != "" {
			uid = f.uid(user)
		}
		h(w, r, uid)
	}
}

func (f *FakeAPI) private(h authedHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, sent, ok := f.holder(r)
		if !sent || !ok {
			writeMessage(w, http.StatusUnauthorized, "authentication required")
			return
		}
		h(w, r, f.uid(user))
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"message": msg})
}

func varID(r *http.Request) int64 {
	id, _ := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	return id
}

func paginate[T any](items []T, r *http.Request, size int) []T {
	page, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || page < 1 {
		page = 1
	}
	start := (page - 1) * size
	if start >= len(items) {
		return []T{}
	}
	end := min(start+size, len(items))
	out := make([]T, end-start)
	copy(out, items[start:end])
	return out
}

func (f *FakeAPI) ok(w http.ResponseWriter, _ *http.Request, _ string) {
	w.WriteHeader(http.StatusOK)
}

func (f *FakeAPI) login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "malformed body")
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[req.ID]
	if !ok || u.PW != req.PW {
		writeMessage(w, http.StatusUnauthorized, "아이디 또는 비밀번호가 올바르지 않습니다")
		return
	}
	pair, err := f.issue(req.ID)
	if err != nil {
		writeMessage(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, pair)
}

func (f *FakeAPI) profile(w http.ResponseWriter, r *http.Request, _ string) {
	user, _, _ := f.holder(r)
	f.mu.Lock()
	status, u := f.profileStatus, f.users[user]
	f.mu.Unlock()
	if status != 0 {
		writeMessage(w, status, "profile unavailable")
		return
	}
	writeJSON(w, http.StatusOK, u.Profile)
}

func (f *FakeAPI) refreshToken(w http.ResponseWriter, r *http.Request) {
	var req models.RefreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "malformed body")
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.refreshStatus != 0 {
		writeMessage(w, f.refreshStatus, "refresh unavailable")
		return
	}
	user, ok := f.refresh[req.RefreshToken]
	if !ok {
		writeMessage(w, http.StatusUnauthorized, "invalid refresh token")
		return
	}
	at, err := sign(user, f.TokenTTL)
	if err != nil {
		writeMessage(w, http.StatusInternalServerError, err.Error())
		return
	}
	f.access[at] = user
	writeJSON(w, http.StatusOK, models.RefreshResponse{AccessToken: at})
}

func (f *FakeAPI) signUp(w http.ResponseWriter, r *http.Request) {
	var req models.SignUpRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "malformed body")
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if _, exists := f.users[req.ID]; exists {
		writeMessage(w, http.StatusConflict, "id already taken")
		return
	}
	f.users[req.ID] = FakeUser{PW: req.PW, Profile: models.Profile{
		ID: req.ID, UID: "uid-" + req.ID, Name: req.Name, Email: req.Email, Role: models.RoleGuest,
	}}
	w.WriteHeader(http.StatusOK)
}

func (f *FakeAPI) festivalList(w http.ResponseWriter, r *http.Request, _ string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	writeJSON(w, http.StatusOK, paginate(f.Festivals, r, f.PageSize))
}

func (f *FakeAPI) festivalSearch(w http.ResponseWriter, r *http.Request, _ string) {
	keyword := mux.Vars(r)["keyword"]
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []models.Festival{}
	for _, fest := range f.Festivals {
		if strings.Contains(fest.Name, keyword) {
			out = append(out, fest)
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (f *FakeAPI) findFestival(id int64) int {
	for i := range f.Festivals {
		if f.Festivals[i].ID == id {
			return i
		}
	}
	return -1
}

func (f *FakeAPI) festival(w http.ResponseWriter, r *http.Request, _ string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	i := f.findFestival(varID(r))
	if i < 0 {
		writeMessage(w, http.StatusNotFound, "festival not found")
		return
	}
	writeJSON(w, http.StatusOK, f.Festivals[i])
}

func (f *FakeAPI) festivalLike(w http.ResponseWriter, r *http.Request, _ string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	i := f.findFestival(varID(r))
	if i < 0 {
		writeMessage(w, http.StatusNotFound, "festival not found")
		return
	}
	fest := &f.Festivals[i]
	fest.Like = !fest.Like
	if fest.Like {
		fest.LikeCount++
	} else {
		fest.LikeCount--
	}
	writeJSON(w, http.StatusOK, models.LikeState{Like: fest.Like, LikeCount: fest.LikeCount})
}

func (f *FakeAPI) jobList(w http.ResponseWriter, r *http.Request, _ string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	writeJSON(w, http.StatusOK, paginate(f.Jobs, r, f.PageSize))
}

func (f *FakeAPI) jobCreate(w http.ResponseWriter, r *http.Request, uid string) {
	var req models.JobRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "malformed body")
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	job := models.Job{
		JobID:       f.id(),
		FestivalID:  varID(r),
		EmployerUID: uid,
		Title:       req.Title,
		ShortDesc:   req.ShortDesc,
		DetailDesc:  req.DetailDesc,
		HourlyPay:   req.HourlyPay,
		WorkTime:    req.WorkTime,
		WorkPeriod:  req.WorkPeriod,
		Preference:  req.Preference,
		IsCertified: req.IsCertified,
		IsOpen:      true,
		Deadline:    req.Deadline,
	}
	f.Jobs = append(f.Jobs, job)
	writeJSON(w, http.StatusOK, job)
}

func (f *FakeAPI) findJob(id int64) int {
	for i := range f.Jobs {
		if f.Jobs[i].JobID == id {
			return i
		}
	}
	return -1
}

func (f *FakeAPI) jobUpdate(w http.ResponseWriter, r *http.Request, uid string) {
	var req models.JobRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "malformed body")
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	i := f.findJob(varID(r))
	if i < 0 {
		writeMessage(w, http.StatusNotFound, "job not found")
		return
	}
	job := &f.Jobs[i]
	if job.EmployerUID != uid {
		writeMessage(w, http.StatusForbidden, "not the employer")
		return
	}
	job.Title = req.Title
	job.HourlyPay = req.HourlyPay
	job.Deadline = req.Deadline
	writeJSON(w, http.StatusOK, job)
}

func (f *FakeAPI) jobDelete(w http.ResponseWriter, r *http.Request, uid string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	i := f.findJob(varID(r))
	if i < 0 {
		writeMessage(w, http.StatusNotFound, "job not found")
		return
	}
	if f.Jobs[i].EmployerUID != uid {
		writeMessage(w, http.StatusForbidden, "not the employer")
		return
	}
	f.Jobs = append(f.Jobs[:i], f.Jobs[i+1:]...)
	w.WriteHeader(http.StatusOK)
}

func (f *FakeAPI) jobApply(w http.ResponseWriter, r *http.Request, uid string) {
	jobID := varID(r)
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.findJob(jobID) < 0 {
		writeMessage(w, http.StatusNotFound, "job not found")
		return
	}

	own := -1
	for i, a := range f.Applications {
		if a.JobID == jobID && a.ApplicantUID == uid {
			own = i
		}
	}

	if r.Method == http.MethodDelete {
		if own < 0 {
			writeMessage(w, http.StatusNotFound, "no application")
			return
		}
		f.Applications = append(f.Applications[:own], f.Applications[own+1:]...)
		w.WriteHeader(http.StatusOK)
		return
	}

	var req models.ApplyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "malformed body")
		return
	}
	if r.Method == http.MethodPost {
		if own >= 0 {
			writeMessage(w, http.StatusConflict, "already applied")
			return
		}
		name := req.Name
		f.Applications = append(f.Applications, models.Application{
			ApplyID: f.id(), JobID: jobID, ApplicantUID: uid, Name: &name, Status: models.StatusApplied,
		})
		w.WriteHeader(http.StatusOK)
		return
	}
	if own < 0 {
		writeMessage(w, http.StatusNotFound, "no application")
		return
	}
	name := req.Name
	f.Applications[own].Name = &name
	w.WriteHeader(http.StatusOK)
}

func (f *FakeAPI) jobApplicants(w http.ResponseWriter, r *http.Request, _ string) {
	jobID := varID(r)
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []models.Application{}
	for _, a := range f.Applications {
		if a.JobID == jobID {
			out = append(out, a)
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (f *FakeAPI) jobAccept(w http.ResponseWriter, r *http.Request, _ string) {
	applyID := varID(r)
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.Applications {
		if f.Applications[i].ApplyID == applyID {
			f.Applications[i].Status = models.StatusAccepted
			w.WriteHeader(http.StatusOK)
			return
		}
	}
	writeMessage(w, http.StatusNotFound, "application not found")
}

func (f *FakeAPI) reviewList(w http.ResponseWriter, r *http.Request, _ string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	writeJSON(w, http.StatusOK, paginate(f.Reviews, r, f.PageSize))
}

func (f *FakeAPI) festivalReviews(w http.ResponseWriter, r *http.Request, _ string) {
	id := varID(r)
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []models.Review{}
	for _, rv := range f.Reviews {
		if rv.FestivalID == id {
			out = append(out, rv)
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func reviewFromQuery(r *http.Request) (models.ReviewRequest, bool) {
	q := r.URL.Query()
	rating, err := strconv.Atoi(q.Get("rating"))
	if err != nil || q.Get("content") == "" {
		return models.ReviewRequest{}, false
	}
	return models.ReviewRequest{Rating: rating, Content: q.Get("content"), Type: models.ReviewType(q.Get("type"))}, true
}

func (f *FakeAPI) reviewCreate(w http.ResponseWriter, r *http.Request, uid string) {
	req, ok := reviewFromQuery(r)
	if !ok {
		writeMessage(w, http.StatusBadRequest, "rating and content are required")
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.Reviews = append(f.Reviews, models.Review{
		ID: f.id(), FestivalID: varID(r), UserName: uid, Rating: req.Rating, Content: req.Content, Type: req.Type,
	})
	w.WriteHeader(http.StatusOK)
}

func (f *FakeAPI) findReview(id int64) int {
	for i := range f.Reviews {
		if f.Reviews[i].ID == id {
			return i
		}
	}
	return -1
}

func (f *FakeAPI) reviewUpdate(w http.ResponseWriter, r *http.Request, _ string) {
	req, ok := reviewFromQuery(r)
	if !ok {
		writeMessage(w, http.StatusBadRequest, "rating and content are required")
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	i := f.findReview(varID(r))
	if i < 0 {
		writeMessage(w, http.StatusNotFound, "review not found")
		return
	}
	f.Reviews[i].Rating = req.Rating
	f.Reviews[i].Content = req.Content
	f.Reviews[i].Type = req.Type
	w.WriteHeader(http.StatusOK)
}

func (f *FakeAPI) reviewDelete(w http.ResponseWriter, r *http.Request, _ string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	i := f.findReview(varID(r))
	if i < 0 {
		writeMessage(w, http.StatusNotFound, "review not found")
		return
	}
	f.Reviews = append(f.Reviews[:i], f.Reviews[i+1:]...)
	w.WriteHeader(http.StatusOK)
}

func (f *FakeAPI) comments(w http.ResponseWriter, r *http.Request, _ string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	i := f.findReview(varID(r))
	if i < 0 {
		writeMessage(w, http.StatusNotFound, "review not found")
		return
	}
	out := f.Reviews[i].Comments
	if out == nil {
		out = []models.Comment{}
	}
	writeJSON(w, http.StatusOK, out)
}

func (f *FakeAPI) commentCreate(w http.ResponseWriter, r *http.Request, uid string) {
	var req models.CommentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "malformed body")
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	i := f.findReview(varID(r))
	if i < 0 {
		writeMessage(w, http.StatusNotFound, "review not found")
		return
	}
	f.Reviews[i].Comments = append(f.Reviews[i].Comments, models.Comment{
		CommentID: f.id(), ReviewID: f.Reviews[i].ID, UserName: uid, Content: req.Content,
	})
	w.WriteHeader(http.StatusOK)
}
