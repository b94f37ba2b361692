package service

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"sync"

	"github.com/cursada/planner-api/internal/models"
	"github.com/cursada/planner-api/internal/repository"
	appErrors "github.com/cursada/planner-api/pkg/errors"
	"github.com/cursada/planner-api/pkg/moderation"
)

var (
	alice = models.Principal{UserID: "11111111-1111-1111-1111-111111111111", Email: "alice@example.com", DisplayName: "Alice"}
	bob   = models.Principal{UserID: "22222222-2222-2222-2222-222222222222", Email: "bob@example.com", DisplayName: "Bob"}
)

func intPtr(v int) *int       { return &v }
func int64Ptr(v int64) *int64 { return &v }

func strPtr(v string) *string     { return &v }
func floatPtr(v float64) *float64 { return &v }

// fakeCatalog serves a fixed career with subjects 1..n.
type fakeCatalog struct {
	careerID int64
	subjects []models.Subject
}

func newFakeCatalog(n int) *fakeCatalog {
	c := &fakeCatalog{careerID: 3}
	for i := 1; i <= n; i++ {
		c.subjects = append(c.subjects, models.Subject{ID: int64(i), CareerID: int64Ptr(3), Number: intPtr(i), Name: "Materia", Duration: models.DurationAnnual})
	}
	return c
}

func (f *fakeCatalog) FindSubject(_ context.Context, id int64) (*models.Subject, error) {
	for _, s := range f.subjects {
		if s.ID == id {
			clone := s
			return &clone, nil
		}
	}
	return nil, appErrors.Clone(appErrors.ErrNotFound, "subject not found")
}

func (f *fakeCatalog) CountCareerSubjects(_ context.Context, careerID int64) (int, error) {
	if careerID != f.careerID {
		return 0, nil
	}
	return len(f.subjects), nil
}

func (f *fakeCatalog) FindCareer(_ context.Context, id int64) (*models.Career, error) {
	if id != f.careerID {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "career not found")
	}
	return &models.Career{ID: id, UniversityID: 1, Name: "Sistemas"}, nil
}

// fakeUsers records ensured principals and their selected career.
type fakeUsers struct {
	mu      sync.Mutex
	ensured map[string]int
	careers map[string]*int64
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{ensured: map[string]int{}, careers: map[string]*int64{}}
}

func (f *fakeUsers) Ensure(_ context.Context, p models.Principal) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ensured[p.UserID]++
	return nil
}

func (f *fakeUsers) CareerID(_ context.Context, p models.Principal) (*int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.careers[p.UserID], nil
}

// fakeUserSubjects is an in-memory user subject store. uniqueErr simulates a
// concurrent insert winning the unique constraint.
type fakeUserSubjects struct {
	catalog   *fakeCatalog
	records   map[string]map[int64]*models.UserSubject
	uniqueErr error
	nextID    int64
}

func newFakeUserSubjects(catalog *fakeCatalog) *fakeUserSubjects {
	return &fakeUserSubjects{catalog: catalog, records: map[string]map[int64]*models.UserSubject{}}
}

func (f *fakeUserSubjects) Exists(_ context.Context, userID string, subjectID int64) (bool, error) {
	_, ok := f.records[userID][subjectID]
	return ok, nil
}

func (f *fakeUserSubjects) Create(_ context.Context, record *models.UserSubject) error {
	if f.uniqueErr != nil {
		return f.uniqueErr
	}
	if f.records[record.UserID] == nil {
		f.records[record.UserID] = map[int64]*models.UserSubject{}
	}
	f.nextID++
	record.ID = f.nextID
	clone := *record
	f.records[record.UserID][record.SubjectID] = &clone
	return nil
}

func (f *fakeUserSubjects) Find(_ context.Context, userID string, subjectID int64) (*models.UserSubject, error) {
	record, ok := f.records[userID][subjectID]
	if !ok {
		return nil, sql.ErrNoRows
	}
	clone := *record
	return &clone, nil
}

func (f *fakeUserSubjects) Update(_ context.Context, record *models.UserSubject) error {
	clone := *record
	f.records[record.UserID][record.SubjectID] = &clone
	return nil
}

func (f *fakeUserSubjects) Delete(_ context.Context, userID string, subjectID int64) (bool, error) {
	if _, ok := f.records[userID][subjectID]; !ok {
		return false, nil
	}
	delete(f.records[userID], subjectID)
	return true, nil
}

func (f *fakeUserSubjects) ListDetailed(_ context.Context, userID string) ([]models.UserSubjectDetail, error) {
	var out []models.UserSubjectDetail
	for _, record := range f.records[userID] {
		subject, _ := f.catalog.FindSubject(context.Background(), record.SubjectID)
		out = append(out, models.UserSubjectDetail{
			UserSubject:     *record,
			SubjectNumber:   subject.Number,
			SubjectName:     subject.Name,
			SubjectDuration: subject.Duration,
		})
	}
	sort.Slice(out, func(i, j int) bool { return *out[i].SubjectNumber < *out[j].SubjectNumber })
	return out, nil
}

func (f *fakeUserSubjects) ListAvailable(_ context.Context, userID string, careerID int64) ([]models.Subject, error) {
	var out []models.Subject
	for _, subject := range f.catalog.subjects {
		if *subject.CareerID != careerID {
			continue
		}
		if _, tracked := f.records[userID][subject.ID]; tracked {
			continue
		}
		out = append(out, subject)
	}
	return out, nil
}

func (f *fakeUserSubjects) CountByStatus(_ context.Context, userID string) ([]models.StatusCount, error) {
	counts := map[models.SubjectStatus]int{}
	for _, record := range f.records[userID] {
		counts[record.Status]++
	}
	var out []models.StatusCount
	for status, count := range counts {
		out = append(out, models.StatusCount{Status: status, Count: count})
	}
	return out, nil
}

// spyModerator counts calls and returns a canned verdict.
type spyModerator struct {
	calls   int
	verdict moderation.Verdict
	err     error
}

func (s *spyModerator) Review(context.Context, string, string) (moderation.Verdict, error) {
	s.calls++
	return s.verdict, s.err
}

// fakeEngagement runs the vote and report state machines in memory.
type fakeEngagement struct {
	kind     models.PostKind
	authors  map[string]string
	votes    map[string]map[string]models.VoteKind
	counters map[string]*models.PostCounters
	reports  map[string]map[string]bool
	voteErr  error
}

func newFakeEngagement(kind models.PostKind) *fakeEngagement {
	return &fakeEngagement{
		kind:     kind,
		authors:  map[string]string{},
		votes:    map[string]map[string]models.VoteKind{},
		counters: map[string]*models.PostCounters{},
		reports:  map[string]map[string]bool{},
	}
}

func (f *fakeEngagement) addPost(id, author string) {
	f.authors[id] = author
	f.votes[id] = map[string]models.VoteKind{}
	f.counters[id] = &models.PostCounters{}
	f.reports[id] = map[string]bool{}
}

func (f *fakeEngagement) Kind() models.PostKind { return f.kind }

func (f *fakeEngagement) counter(id string, kind models.VoteKind) *int {
	if kind == models.VoteUseful {
		return &f.counters[id].UsefulCount
	}
	return &f.counters[id].NotUsefulCount
}

func decrement(v *int) {
	if *v > 0 {
		*v--
	}
}

func (f *fakeEngagement) ApplyVote(_ context.Context, postID, userID string, kind models.VoteKind) (*models.VoteResult, error) {
	if f.voteErr != nil {
		return nil, f.voteErr
	}
	author, ok := f.authors[postID]
	if !ok {
		return nil, sql.ErrNoRows
	}
	if author == userID {
		return nil, repository.ErrSelfVote
	}
	current := &kind
	existing, has := f.votes[postID][userID]
	switch {
	case !has:
		f.votes[postID][userID] = kind
		*f.counter(postID, kind)++
	case existing == kind:
		delete(f.votes[postID], userID)
		decrement(f.counter(postID, kind))
		current = nil
	default:
		f.votes[postID][userID] = kind
		decrement(f.counter(postID, existing))
		*f.counter(postID, kind)++
	}
	c := f.counters[postID]
	return &models.VoteResult{PostID: postID, UsefulCount: c.UsefulCount, NotUsefulCount: c.NotUsefulCount, UserVote: current}, nil
}

func (f *fakeEngagement) ApplyReport(_ context.Context, postID, userID, _ string) (*models.PostCounters, error) {
	author, ok := f.authors[postID]
	if !ok {
		return nil, sql.ErrNoRows
	}
	if author == userID {
		return nil, repository.ErrSelfReport
	}
	if f.reports[postID][userID] {
		return nil, repository.ErrAlreadyReported
	}
	f.reports[postID][userID] = true
	f.counters[postID].ReportsCount++
	clone := *f.counters[postID]
	return &clone, nil
}

// fakeRatings is an in-memory rating store.
type fakeRatings struct {
	ratings map[string]*models.Rating
	created int
	findErr error
}

func newFakeRatings() *fakeRatings {
	return &fakeRatings{ratings: map[string]*models.Rating{}}
}

func (f *fakeRatings) ExistsForUser(_ context.Context, userID string, subjectID int64) (bool, error) {
	for _, r := range f.ratings {
		if r.UserID == userID && r.SubjectID == subjectID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeRatings) Create(_ context.Context, rating *models.Rating) error {
	f.created++
	rating.ID = fmt.Sprintf("rating-%d", f.created)
	clone := *rating
	f.ratings[rating.ID] = &clone
	return nil
}

func (f *fakeRatings) FindByID(_ context.Context, id string) (*models.Rating, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	r, ok := f.ratings[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	clone := *r
	return &clone, nil
}

func (f *fakeRatings) Update(_ context.Context, rating *models.Rating) error {
	clone := *rating
	f.ratings[rating.ID] = &clone
	return nil
}

func (f *fakeRatings) Delete(_ context.Context, id string) error {
	delete(f.ratings, id)
	return nil
}

func (f *fakeRatings) ListBySubject(_ context.Context, subjectID int64, _, _ int) ([]models.Rating, int, error) {
	var out []models.Rating
	for _, r := range f.ratings {
		if r.SubjectID == subjectID {
			out = append(out, *r)
		}
	}
	return out, len(out), nil
}

func (f *fakeRatings) Summary(_ context.Context, subjectID int64) (*models.RatingSummary, error) {
	summary := &models.RatingSummary{SubjectID: subjectID}
	var total int
	for _, r := range f.ratings {
		if r.SubjectID == subjectID {
			summary.Count++
			total += r.Score
		}
	}
	if summary.Count > 0 {
		summary.AverageScore = float64(total) / float64(summary.Count)
	}
	return summary, nil
}
