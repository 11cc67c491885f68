package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"gorm.io/gorm"

	"github.com/oyolcinar/dus-backend-sub003/models"
	"github.com/oyolcinar/dus-backend-sub003/repositories"
	"github.com/oyolcinar/dus-backend-sub003/utils"
)

// CourseService owns the content hierarchy: courses, topics, subtopics,
// tests and questions. Reads are open to any authenticated user;
// mutations sit behind the admin guard at the route layer.
type CourseService struct {
	DB      *gorm.DB
	Content *repositories.ContentRepository
}

func NewCourseService(db *gorm.DB) *CourseService {
	return &CourseService{DB: db, Content: repositories.NewContentRepository(db)}
}

func paramID(c *fiber.Ctx, name string) (int64, error) {
	return strconv.ParseInt(c.Params(name), 10, 64)
}

// --- courses ---

// CreateCourse accepts multipart form data so the cover image can ride
// along with the fields.
func (s *CourseService) CreateCourse(c *fiber.Ctx) error {
	title := strings.TrimSpace(c.FormValue("title"))
	if title == "" {
		return c.Status(400).JSON(fiber.Map{"error": "title is required"})
	}

	courseSlug, err := s.uniqueSlug(title)
	if err != nil {
		log.Printf("❌ [CONTENT] slug generation failed: %v", err)
		return c.Status(500).JSON(fiber.Map{"error": "failed to create course"})
	}

	course := &models.Course{
		Title:       title,
		Slug:        courseSlug,
		Description: c.FormValue("description"),
	}
	if v := c.FormValue("sort_order"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			course.SortOrder = n
		}
	}

	if cover, err := c.FormFile("image"); err == nil && cover.Size > 0 {
		ext := filepath.Ext(cover.Filename)
		if ext == "" {
			ext = ".png"
		}
		url, err := utils.StoreUpload(cover, "courses/"+uuid.NewString()+ext)
		if err != nil {
			log.Printf("❌ [CONTENT] cover upload failed: %v", err)
			return c.Status(500).JSON(fiber.Map{"error": "failed to upload cover image"})
		}
		course.ImageURL = &url
	}

	if err := s.Content.CreateCourse(course); err != nil {
		log.Printf("❌ [CONTENT] course create failed: %v", err)
		return c.Status(500).JSON(fiber.Map{"error": "failed to create course"})
	}

	log.Printf("📚 Course %d created (%s)", course.ID, course.Slug)
	return c.Status(201).JSON(course)
}

// uniqueSlug slugifies the title and appends a numeric suffix when the
// base slug is already taken.
func (s *CourseService) uniqueSlug(title string) (string, error) {
	base := slug.Make(title)
	count, err := s.Content.SlugCount(base)
	if err != nil {
		return "", err
	}
	if count == 0 {
		return base, nil
	}
	return fmt.Sprintf("%s-%d", base, count+1), nil
}

func (s *CourseService) ListCourses(c *fiber.Ctx) error {
	courses, err := s.Content.ListCourses(c.Query("search"))
	if err != nil {
		log.Printf("❌ [CONTENT] course list failed: %v", err)
		return c.Status(500).JSON(fiber.Map{"error": "failed to list courses"})
	}
	return c.JSON(courses)
}

func (s *CourseService) GetCourse(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "course id must be numeric"})
	}

	course, err := s.Content.GetCourse(id)
	if err != nil {
		if errors.Is(err, repositories.ErrCourseNotFound) {
			return c.Status(404).JSON(fiber.Map{"error": "course not found"})
		}
		log.Printf("❌ [CONTENT] course lookup failed: %v", err)
		return c.Status(500).JSON(fiber.Map{"error": "failed to fetch course"})
	}
	return c.JSON(course)
}

func (s *CourseService) UpdateCourse(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "course id must be numeric"})
	}

	updates := map[string]interface{}{}
	if title := strings.TrimSpace(c.FormValue("title")); title != "" {
		updates["title"] = title
	}
	if desc := c.FormValue("description"); desc != "" {
		updates["description"] = desc
	}
	if v := c.FormValue("sort_order"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			updates["sort_order"] = n
		}
	}

	if cover, err := c.FormFile("image"); err == nil && cover.Size > 0 {
		ext := filepath.Ext(cover.Filename)
		if ext == "" {
			ext = ".png"
		}
		url, err := utils.StoreUpload(cover, "courses/"+uuid.NewString()+ext)
		if err != nil {
			log.Printf("❌ [CONTENT] cover upload failed: %v", err)
			return c.Status(500).JSON(fiber.Map{"error": "failed to upload cover image"})
		}
		updates["image_url"] = url
	}

	if len(updates) == 0 {
		return c.Status(400).JSON(fiber.Map{"error": "nothing to update"})
	}

	if err := s.Content.UpdateCourse(id, updates); err != nil {
		if errors.Is(err, repositories.ErrCourseNotFound) {
			return c.Status(404).JSON(fiber.Map{"error": "course not found"})
		}
		log.Printf("❌ [CONTENT] course update failed: %v", err)
		return c.Status(500).JSON(fiber.Map{"error": "failed to update course"})
	}

	course, err := s.Content.GetCourse(id)
	if err != nil {
		log.Printf("❌ [CONTENT] course reload failed: %v", err)
		return c.Status(500).JSON(fiber.Map{"error": "failed to update course"})
	}
	return c.JSON(course)
}

func (s *CourseService) DeleteCourse(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "course id must be numeric"})
	}

	if err := s.Content.DeleteCourse(id); err != nil {
		if errors.Is(err, repositories.ErrCourseNotFound) {
			return c.Status(404).JSON(fiber.Map{"error": "course not found"})
		}
		log.Printf("❌ [CONTENT] course delete failed: %v", err)
		return c.Status(500).JSON(fiber.Map{"error": "failed to delete course"})
	}
	return c.JSON(fiber.Map{"message": "course deleted"})
}

// --- topics ---

func (s *CourseService) CreateTopic(c *fiber.Ctx) error {
	var req struct {
		CourseID    *int64 `json:"courseId"`
		Title       string `json:"title"`
		Description string `json:"description"`
		SortOrder   int    `json:"sortOrder"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid request body"})
	}
	if req.CourseID == nil || strings.TrimSpace(req.Title) == "" {
		return c.Status(400).JSON(fiber.Map{"error": "courseId and title are required"})
	}

	ok, err := s.Content.CourseExists(*req.CourseID)
	if err != nil {
		log.Printf("❌ [CONTENT] course lookup failed: %v", err)
		return c.Status(500).JSON(fiber.Map{"error": "failed to create topic"})
	}
	if !ok {
		return c.Status(404).JSON(fiber.Map{"error": "course not found"})
	}

	topic := &models.Topic{
		CourseID:    *req.CourseID,
		Title:       strings.TrimSpace(req.Title),
		Description: req.Description,
		SortOrder:   req.SortOrder,
	}
	if err := s.Content.CreateTopic(topic); err != nil {
		log.Printf("❌ [CONTENT] topic create failed: %v", err)
		return c.Status(500).JSON(fiber.Map{"error": "failed to create topic"})
	}
	return c.Status(201).JSON(topic)
}

func (s *CourseService) ListTopics(c *fiber.Ctx) error {
	courseID, err := paramID(c, "id")
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "course id must be numeric"})
	}
	topics, err := s.Content.ListTopics(courseID)
	if err != nil {
		log.Printf("❌ [CONTENT] topic list failed: %v", err)
		return c.Status(500).JSON(fiber.Map{"error": "failed to list topics"})
	}
	return c.JSON(topics)
}

func (s *CourseService) UpdateTopic(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "topic id must be numeric"})
	}

	var req struct {
		Title       *string `json:"title"`
		Description *string `json:"description"`
		SortOrder   *int    `json:"sortOrder"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid request body"})
	}

	updates := map[string]interface{}{}
	if req.Title != nil && strings.TrimSpace(*req.Title) != "" {
		updates["title"] = strings.TrimSpace(*req.Title)
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.SortOrder != nil {
		updates["sort_order"] = *req.SortOrder
	}
	if len(updates) == 0 {
		return c.Status(400).JSON(fiber.Map{"error": "nothing to update"})
	}

	if err := s.Content.UpdateTopic(id, updates); err != nil {
		if errors.Is(err, repositories.ErrTopicNotFound) {
			return c.Status(404).JSON(fiber.Map{"error": "topic not found"})
		}
		log.Printf("❌ [CONTENT] topic update failed: %v", err)
		return c.Status(500).JSON(fiber.Map{"error": "failed to update topic"})
	}

	topic, err := s.Content.GetTopic(id)
	if err != nil {
		log.Printf("❌ [CONTENT] topic reload failed: %v", err)
		return c.Status(500).JSON(fiber.Map{"error": "failed to update topic"})
	}
	return c.JSON(topic)
}

func (s *CourseService) DeleteTopic(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "topic id must be numeric"})
	}
	if err := s.Content.DeleteTopic(id); err != nil {
		if errors.Is(err, repositories.ErrTopicNotFound) {
			return c.Status(404).JSON(fiber.Map{"error": "topic not found"})
		}
		log.Printf("❌ [CONTENT] topic delete failed: %v", err)
		return c.Status(500).JSON(fiber.Map{"error": "failed to delete topic"})
	}
	return c.JSON(fiber.Map{"message": "topic deleted"})
}

// --- subtopics ---

func (s *CourseService) CreateSubtopic(c *fiber.Ctx) error {
	var req struct {
		TopicID   *int64 `json:"topicId"`
		Title     string `json:"title"`
		SortOrder int    `json:"sortOrder"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid request body"})
	}
	if req.TopicID == nil || strings.TrimSpace(req.Title) == "" {
		return c.Status(400).JSON(fiber.Map{"error": "topicId and title are required"})
	}

	ok, err := s.Content.TopicExists(*req.TopicID)
	if err != nil {
		log.Printf("❌ [CONTENT] topic lookup failed: %v", err)
		return c.Status(500).JSON(fiber.Map{"error": "failed to create subtopic"})
	}
	if !ok {
		return c.Status(404).JSON(fiber.Map{"error": "topic not found"})
	}

	subtopic := &models.Subtopic{
		TopicID:   *req.TopicID,
		Title:     strings.TrimSpace(req.Title),
		SortOrder: req.SortOrder,
	}
	if err := s.Content.CreateSubtopic(subtopic); err != nil {
		log.Printf("❌ [CONTENT] subtopic create failed: %v", err)
		return c.Status(500).JSON(fiber.Map{"error": "failed to create subtopic"})
	}
	return c.Status(201).JSON(subtopic)
}

func (s *CourseService) ListSubtopics(c *fiber.Ctx) error {
	topicID, err := paramID(c, "id")
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "topic id must be numeric"})
	}
	subtopics, err := s.Content.ListSubtopics(topicID)
	if err != nil {
		log.Printf("❌ [CONTENT] subtopic list failed: %v", err)
		return c.Status(500).JSON(fiber.Map{"error": "failed to list subtopics"})
	}
	return c.JSON(subtopics)
}

func (s *CourseService) DeleteSubtopic(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "subtopic id must be numeric"})
	}
	if err := s.Content.DeleteSubtopic(id); err != nil {
		if errors.Is(err, repositories.ErrSubtopicNotFound) {
			return c.Status(404).JSON(fiber.Map{"error": "subtopic not found"})
		}
		log.Printf("❌ [CONTENT] subtopic delete failed: %v", err)
		return c.Status(500).JSON(fiber.Map{"error": "failed to delete subtopic"})
	}
	return c.JSON(fiber.Map{"message": "subtopic deleted"})
}

// --- tests ---

func (s *CourseService) CreateTest(c *fiber.Ctx) error {
	var req struct {
		Title           string `json:"title"`
		CourseID        *int64 `json:"courseId"`
		TopicID         *int64 `json:"topicId"`
		DifficultyLevel int    `json:"difficultyLevel"`
		TimeLimitSec    int    `json:"timeLimitSec"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid request body"})
	}
	if strings.TrimSpace(req.Title) == "" {
		return c.Status(400).JSON(fiber.Map{"error": "title is required"})
	}

	if req.CourseID != nil {
		ok, err := s.Content.CourseExists(*req.CourseID)
		if err != nil {
			log.Printf("❌ [CONTENT] course lookup failed: %v", err)
			return c.Status(500).JSON(fiber.Map{"error": "failed to create test"})
		}
		if !ok {
			return c.Status(404).JSON(fiber.Map{"error": "course not found"})
		}
	}
	if req.TopicID != nil {
		ok, err := s.Content.TopicExists(*req.TopicID)
		if err != nil {
			log.Printf("❌ [CONTENT] topic lookup failed: %v", err)
			return c.Status(500).JSON(fiber.Map{"error": "failed to create test"})
		}
		if !ok {
			return c.Status(404).JSON(fiber.Map{"error": "topic not found"})
		}
	}

	difficulty := req.DifficultyLevel
	if difficulty == 0 {
		difficulty = 1
	}
	if difficulty < 1 || difficulty > 5 {
		return c.Status(400).JSON(fiber.Map{"error": "difficultyLevel must be between 1 and 5"})
	}

	test := &models.Test{
		Title:           strings.TrimSpace(req.Title),
		CourseID:        req.CourseID,
		TopicID:         req.TopicID,
		DifficultyLevel: difficulty,
		TimeLimitSec:    req.TimeLimitSec,
	}
	if err := s.Content.CreateTest(test); err != nil {
		log.Printf("❌ [CONTENT] test create failed: %v", err)
		return c.Status(500).JSON(fiber.Map{"error": "failed to create test"})
	}
	return c.Status(201).JSON(test)
}

func (s *CourseService) ListTests(c *fiber.Ctx) error {
	var courseID *int64
	if v := c.Query("courseId"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "courseId must be numeric"})
		}
		courseID = &id
	}

	tests, err := s.Content.ListTests(courseID)
	if err != nil {
		log.Printf("❌ [CONTENT] test list failed: %v", err)
		return c.Status(500).JSON(fiber.Map{"error": "failed to list tests"})
	}
	return c.JSON(tests)
}

func (s *CourseService) GetTest(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "test id must be numeric"})
	}

	test, err := s.Content.GetTest(id, true)
	if err != nil {
		if errors.Is(err, repositories.ErrTestNotFound) {
			return c.Status(404).JSON(fiber.Map{"error": "test not found"})
		}
		log.Printf("❌ [CONTENT] test lookup failed: %v", err)
		return c.Status(500).JSON(fiber.Map{"error": "failed to fetch test"})
	}
	return c.JSON(test)
}

func (s *CourseService) DeleteTest(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "test id must be numeric"})
	}
	if err := s.Content.DeleteTest(id); err != nil {
		if errors.Is(err, repositories.ErrTestNotFound) {
			return c.Status(404).JSON(fiber.Map{"error": "test not found"})
		}
		log.Printf("❌ [CONTENT] test delete failed: %v", err)
		return c.Status(500).JSON(fiber.Map{"error": "failed to delete test"})
	}
	return c.JSON(fiber.Map{"message": "test deleted"})
}

// --- questions ---

func (s *CourseService) CreateQuestion(c *fiber.Ctx) error {
	var req struct {
		TestID        *int64            `json:"testId"`
		TopicID       *int64            `json:"topicId"`
		SubtopicID    *int64            `json:"subtopicId"`
		Text          string            `json:"text"`
		Options       map[string]string `json:"options"`
		CorrectAnswer string            `json:"correctAnswer"`
		Explanation   *string           `json:"explanation"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid request body"})
	}
	if req.TestID == nil || strings.TrimSpace(req.Text) == "" || req.CorrectAnswer == "" {
		return c.Status(400).JSON(fiber.Map{"error": "testId, text and correctAnswer are required"})
	}
	if len(req.Options) < 2 {
		return c.Status(400).JSON(fiber.Map{"error": "at least two options are required"})
	}
	if _, ok := req.Options[req.CorrectAnswer]; !ok {
		return c.Status(400).JSON(fiber.Map{"error": "correctAnswer must be one of the option keys"})
	}

	ok, err := s.Content.TestExists(*req.TestID)
	if err != nil {
		log.Printf("❌ [CONTENT] test lookup failed: %v", err)
		return c.Status(500).JSON(fiber.Map{"error": "failed to create question"})
	}
	if !ok {
		return c.Status(404).JSON(fiber.Map{"error": "test not found"})
	}

	options, err := marshalOptions(req.Options)
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "options are not valid"})
	}

	question := &models.Question{
		TestID:        *req.TestID,
		TopicID:       req.TopicID,
		SubtopicID:    req.SubtopicID,
		Text:          strings.TrimSpace(req.Text),
		Options:       options,
		CorrectAnswer: req.CorrectAnswer,
		Explanation:   req.Explanation,
	}
	if err := s.Content.CreateQuestion(question); err != nil {
		log.Printf("❌ [CONTENT] question create failed: %v", err)
		return c.Status(500).JSON(fiber.Map{"error": "failed to create question"})
	}
	return c.Status(201).JSON(question)
}

func marshalOptions(options map[string]string) (string, error) {
	raw, err := json.Marshal(options)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

func (s *CourseService) ListQuestions(c *fiber.Ctx) error {
	testID, err := paramID(c, "id")
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "test id must be numeric"})
	}
	questions, err := s.Content.ListQuestions(testID)
	if err != nil {
		log.Printf("❌ [CONTENT] question list failed: %v", err)
		return c.Status(500).JSON(fiber.Map{"error": "failed to list questions"})
	}
	return c.JSON(questions)
}

func (s *CourseService) DeleteQuestion(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "question id must be numeric"})
	}
	if err := s.Content.DeleteQuestion(id); err != nil {
		if errors.Is(err, repositories.ErrQuestionNotFound) {
			return c.Status(404).JSON(fiber.Map{"error": "question not found"})
		}
		log.Printf("❌ [CONTENT] question delete failed: %v", err)
		return c.Status(500).JSON(fiber.Map{"error": "failed to delete question"})
	}
	return c.JSON(fiber.Map{"message": "question deleted"})
}
