package services_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/oyolcinar/dus-backend-sub003/handlers"
	"github.com/oyolcinar/dus-backend-sub003/models"
	"github.com/oyolcinar/dus-backend-sub003/services"
	"github.com/oyolcinar/dus-backend-sub003/testhelpers"
	"github.com/oyolcinar/dus-backend-sub003/utils"
)

type studyFixture struct {
	app  *fiber.App
	db   *gorm.DB
	user *models.User
}

func newStudyFixture(t *testing.T) *studyFixture {
	t.Helper()

	db := testhelpers.SetupTestDB(t)
	app := fiber.New()
	handlers.SetupStudyRoutes(app, services.NewStudyService(db), services.NewProgressService(db))

	return &studyFixture{app: app, db: db, user: testhelpers.SeedUser(t, db, "student")}
}

func (f *studyFixture) do(t *testing.T, method, path string, body interface{}) (*http.Response, map[string]interface{}) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	token, err := utils.GenerateToken(f.user.ID, f.user.Role)
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := f.app.Test(req, 5000)
	if err != nil {
		t.Fatalf("request %s %s failed: %v", method, path, err)
	}

	var decoded map[string]interface{}
	raw, _ := io.ReadAll(resp.Body)
	if len(raw) > 0 {
		_ = json.Unmarshal(raw, &decoded)
	}
	return resp, decoded
}

func TestStudySessionLifecycle(t *testing.T) {
	f := newStudyFixture(t)

	resp, decoded := f.do(t, "POST", "/api/study/sessions", map[string]interface{}{})
	if resp.StatusCode != 201 {
		t.Fatalf("start failed: %d %v", resp.StatusCode, decoded)
	}
	sessionID := decoded["id"].(string)

	// Backdate the start so the close books real time.
	f.db.Model(&models.StudySession{}).Where("id = ?", sessionID).
		UpdateColumn("started_at", time.Now().Add(-100*time.Second))

	resp, decoded = f.do(t, "POST", "/api/study/sessions/"+sessionID+"/end", nil)
	if resp.StatusCode != 200 {
		t.Fatalf("end failed: %d %v", resp.StatusCode, decoded)
	}
	duration := decoded["durationSeconds"].(float64)
	if duration < 100 || duration > 110 {
		t.Fatalf("expected ~100s duration, got %v", duration)
	}

	var user models.User
	f.db.First(&user, "id = ?", f.user.ID)
	if user.TotalStudyTime != int64(duration) {
		t.Fatalf("study time not booked: duration %v, total %d", duration, user.TotalStudyTime)
	}

	t.Run("ending twice books nothing extra", func(t *testing.T) {
		resp, _ := f.do(t, "POST", "/api/study/sessions/"+sessionID+"/end", nil)
		if resp.StatusCode != 400 {
			t.Fatalf("expected 400 on re-end, got %d", resp.StatusCode)
		}
		var again models.User
		f.db.First(&again, "id = ?", f.user.ID)
		if again.TotalStudyTime != user.TotalStudyTime {
			t.Fatalf("re-end moved the counter: %d vs %d", again.TotalStudyTime, user.TotalStudyTime)
		}
	})
}

func TestStudyStartClosesOpenSession(t *testing.T) {
	f := newStudyFixture(t)

	_, first := f.do(t, "POST", "/api/study/sessions", map[string]interface{}{})
	firstID := first["id"].(string)

	resp, second := f.do(t, "POST", "/api/study/sessions", map[string]interface{}{})
	if resp.StatusCode != 201 {
		t.Fatalf("second start failed: %d %v", resp.StatusCode, second)
	}

	var session models.StudySession
	f.db.First(&session, "id = ?", firstID)
	if session.EndedAt == nil {
		t.Fatalf("starting a new session must close the open one")
	}
}

func TestStudySummaryAndList(t *testing.T) {
	f := newStudyFixture(t)

	course := &models.Course{Title: "Protetik", Slug: "protetik"}
	if err := f.db.Create(course).Error; err != nil {
		t.Fatalf("failed to seed course: %v", err)
	}

	_, started := f.do(t, "POST", "/api/study/sessions", map[string]interface{}{"courseId": course.ID})
	sessionID := started["id"].(string)
	f.db.Model(&models.StudySession{}).Where("id = ?", sessionID).
		UpdateColumn("started_at", time.Now().Add(-60*time.Second))
	f.do(t, "POST", "/api/study/sessions/"+sessionID+"/end", nil)

	resp, summary := f.do(t, "GET", "/api/study/summary", nil)
	if resp.StatusCode != 200 {
		t.Fatalf("summary failed: %d", resp.StatusCode)
	}
	if summary["totalStudyTime"].(float64) < 60 {
		t.Fatalf("expected at least 60s total, got %v", summary["totalStudyTime"])
	}
	perCourse := summary["perCourse"].([]interface{})
	if len(perCourse) != 1 {
		t.Fatalf("expected one course rollup, got %d", len(perCourse))
	}
	if summary["dailyStreak"].(float64) != 1 {
		t.Fatalf("expected streak 1 after studying today, got %v", summary["dailyStreak"])
	}

	resp, list := f.do(t, "GET", "/api/study/sessions?page=1&size=10", nil)
	if resp.StatusCode != 200 {
		t.Fatalf("list failed: %d", resp.StatusCode)
	}
	if list["total"].(float64) != 1 {
		t.Fatalf("expected 1 session, got %v", list["total"])
	}

	t.Run("unknown session", func(t *testing.T) {
		resp, _ := f.do(t, "POST", "/api/study/sessions/missing/end", nil)
		if resp.StatusCode != 404 {
			t.Fatalf("expected 404, got %d", resp.StatusCode)
		}
	})
}
