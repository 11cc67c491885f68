package services_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/oyolcinar/dus-backend-sub003/handlers"
	"github.com/oyolcinar/dus-backend-sub003/models"
	"github.com/oyolcinar/dus-backend-sub003/services"
	"github.com/oyolcinar/dus-backend-sub003/testhelpers"
	"github.com/oyolcinar/dus-backend-sub003/utils"
)

type analyticsFixture struct {
	app      *fiber.App
	db       *gorm.DB
	user     *models.User
	question *models.Question
}

func newAnalyticsFixture(t *testing.T) *analyticsFixture {
	t.Helper()

	db := testhelpers.SetupTestDB(t)
	app := fiber.New()
	progress := services.NewProgressService(db)
	handlers.SetupAnalyticsRoutes(app, services.NewAnalyticsService(db, progress))
	handlers.SetupStudyRoutes(app, services.NewStudyService(db), progress)

	course := &models.Course{Title: "Endodonti", Slug: "endodonti"}
	if err := db.Create(course).Error; err != nil {
		t.Fatalf("failed to seed course: %v", err)
	}
	topic := &models.Topic{CourseID: course.ID, Title: "Kanal tedavisi"}
	if err := db.Create(topic).Error; err != nil {
		t.Fatalf("failed to seed topic: %v", err)
	}
	subtopic := &models.Subtopic{TopicID: topic.ID, Title: "İrrigasyon"}
	if err := db.Create(subtopic).Error; err != nil {
		t.Fatalf("failed to seed subtopic: %v", err)
	}
	test := &models.Test{Title: "Endo test", CourseID: &course.ID}
	if err := db.Create(test).Error; err != nil {
		t.Fatalf("failed to seed test: %v", err)
	}
	question := &models.Question{
		TestID:        test.ID,
		TopicID:       &topic.ID,
		SubtopicID:    &subtopic.ID,
		Text:          "Hangisi doğrudur?",
		Options:       `{"A":"bir","B":"iki"}`,
		CorrectAnswer: "A",
	}
	if err := db.Create(question).Error; err != nil {
		t.Fatalf("failed to seed question: %v", err)
	}

	return &analyticsFixture{
		app:      app,
		db:       db,
		user:     testhelpers.SeedUser(t, db, "analyst"),
		question: question,
	}
}

func (f *analyticsFixture) do(t *testing.T, method, path string, body interface{}) (*http.Response, map[string]interface{}) {
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

func TestRecordAnswer(t *testing.T) {
	f := newAnalyticsFixture(t)

	t.Run("correct answer", func(t *testing.T) {
		resp, decoded := f.do(t, "POST", "/api/answers", map[string]interface{}{
			"questionId":     f.question.ID,
			"selectedOption": "A",
			"timeSpentMs":    4200,
		})
		if resp.StatusCode != 201 {
			t.Fatalf("record failed: %d %v", resp.StatusCode, decoded)
		}
		if decoded["isCorrect"] != true {
			t.Fatalf("expected correct judgement, got %v", decoded["isCorrect"])
		}

		// The answer fed the mastery schedule.
		var progress models.SubtopicProgress
		err := f.db.Where("user_id = ? AND subtopic_id = ?", f.user.ID, *f.question.SubtopicID).
			First(&progress).Error
		if err != nil {
			t.Fatalf("expected a progress row: %v", err)
		}
		if progress.MasteryLevel != 1.0 {
			t.Fatalf("expected mastery 1.0 after a first correct answer, got %f", progress.MasteryLevel)
		}
	})

	t.Run("wrong answer", func(t *testing.T) {
		resp, decoded := f.do(t, "POST", "/api/answers", map[string]interface{}{
			"questionId":     f.question.ID,
			"selectedOption": "B",
		})
		if resp.StatusCode != 201 {
			t.Fatalf("record failed: %d", resp.StatusCode)
		}
		if decoded["isCorrect"] != false {
			t.Fatalf("expected wrong judgement, got %v", decoded["isCorrect"])
		}
	})

	t.Run("unknown question", func(t *testing.T) {
		resp, _ := f.do(t, "POST", "/api/answers", map[string]interface{}{
			"questionId":     9999,
			"selectedOption": "A",
		})
		if resp.StatusCode != 404 {
			t.Fatalf("expected 404, got %d", resp.StatusCode)
		}
	})

	t.Run("missing fields", func(t *testing.T) {
		resp, _ := f.do(t, "POST", "/api/answers", map[string]interface{}{
			"questionId": f.question.ID,
		})
		if resp.StatusCode != 400 {
			t.Fatalf("expected 400, got %d", resp.StatusCode)
		}
	})
}

func TestUserAnalytics(t *testing.T) {
	f := newAnalyticsFixture(t)

	t.Run("zeroed for a fresh user", func(t *testing.T) {
		resp, decoded := f.do(t, "GET", "/api/analytics/user", nil)
		if resp.StatusCode != 200 {
			t.Fatalf("expected 200, got %d", resp.StatusCode)
		}
		if decoded["totalAnswers"].(float64) != 0 {
			t.Fatalf("expected zero answers, got %v", decoded["totalAnswers"])
		}
		if decoded["accuracy"] != "0.00" {
			t.Fatalf("expected accuracy 0.00, got %v", decoded["accuracy"])
		}
	})

	t.Run("after answering", func(t *testing.T) {
		f.do(t, "POST", "/api/answers", map[string]interface{}{
			"questionId": f.question.ID, "selectedOption": "A", "timeSpentMs": 1000,
		})
		f.do(t, "POST", "/api/answers", map[string]interface{}{
			"questionId": f.question.ID, "selectedOption": "B", "timeSpentMs": 3000,
		})

		_, decoded := f.do(t, "GET", "/api/analytics/user", nil)
		if decoded["totalAnswers"].(float64) != 2 {
			t.Fatalf("expected 2 answers, got %v", decoded["totalAnswers"])
		}
		if decoded["accuracy"] != "0.50" {
			t.Fatalf("expected accuracy 0.50, got %v", decoded["accuracy"])
		}
		if decoded["avgTimeMs"] != "2000.00" {
			t.Fatalf("expected avgTimeMs 2000.00, got %v", decoded["avgTimeMs"])
		}

		trend := decoded["trend"].([]interface{})
		if len(trend) != 1 {
			t.Fatalf("expected one trend bucket for today, got %d", len(trend))
		}
	})
}

func TestProgressEndpoints(t *testing.T) {
	f := newAnalyticsFixture(t)

	f.do(t, "POST", "/api/answers", map[string]interface{}{
		"questionId": f.question.ID, "selectedOption": "B",
	})

	resp, overview := f.do(t, "GET", "/api/progress", nil)
	if resp.StatusCode != 200 {
		t.Fatalf("overview failed: %d", resp.StatusCode)
	}
	perCourse := overview["perCourse"].([]interface{})
	if len(perCourse) != 1 {
		t.Fatalf("expected one course rollup, got %d", len(perCourse))
	}

	// A miss schedules the next review one day out, so nothing is due yet.
	resp, due := f.do(t, "GET", "/api/progress/due", nil)
	if resp.StatusCode != 200 {
		t.Fatalf("due failed: %d", resp.StatusCode)
	}
	if len(due["due"].([]interface{})) != 0 {
		t.Fatalf("expected nothing due yet, got %v", due["due"])
	}
}
