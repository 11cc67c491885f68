package repositories

import (
	"errors"

	"gorm.io/gorm"

	"github.com/oyolcinar/dus-backend-sub003/models"
	"github.com/oyolcinar/dus-backend-sub003/utils"
)

var (
	ErrCourseNotFound   = errors.New("course not found")
	ErrTopicNotFound    = errors.New("topic not found")
	ErrSubtopicNotFound = errors.New("subtopic not found")
	ErrTestNotFound     = errors.New("test not found")
	ErrQuestionNotFound = errors.New("question not found")
)

type ContentRepository struct {
	DB *gorm.DB
}

func NewContentRepository(db *gorm.DB) *ContentRepository {
	return &ContentRepository{DB: db}
}

// --- courses ---

func (r *ContentRepository) CreateCourse(course *models.Course) error {
	course.TitleSearch = utils.FoldSearchTerm(course.Title)
	return r.DB.Create(course).Error
}

func (r *ContentRepository) GetCourse(id int64) (*models.Course, error) {
	var course models.Course
	err := r.DB.
		Preload("Topics", func(db *gorm.DB) *gorm.DB { return db.Order("sort_order ASC, id ASC") }).
		Preload("Topics.Subtopics", func(db *gorm.DB) *gorm.DB { return db.Order("sort_order ASC, id ASC") }).
		First(&course, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCourseNotFound
		}
		return nil, err
	}
	return &course, nil
}

// ListCourses returns all courses, optionally filtered by a search term
// matched against the Turkish-folded title.
func (r *ContentRepository) ListCourses(search string) ([]models.Course, error) {
	q := r.DB.Order("sort_order ASC, id ASC")
	if search != "" {
		q = q.Where("title_search LIKE ?", "%"+utils.FoldSearchTerm(search)+"%")
	}
	var courses []models.Course
	err := q.Find(&courses).Error
	return courses, err
}

func (r *ContentRepository) UpdateCourse(id int64, updates map[string]interface{}) error {
	if title, ok := updates["title"].(string); ok {
		updates["title_search"] = utils.FoldSearchTerm(title)
	}
	res := r.DB.Model(&models.Course{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrCourseNotFound
	}
	return nil
}

func (r *ContentRepository) DeleteCourse(id int64) error {
	res := r.DB.Delete(&models.Course{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrCourseNotFound
	}
	return nil
}

func (r *ContentRepository) CourseExists(id int64) (bool, error) {
	var count int64
	if err := r.DB.Model(&models.Course{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// SlugCount counts slugs matching slug exactly or with a numeric suffix,
// so callers can derive a unique slug without a retry loop.
func (r *ContentRepository) SlugCount(slug string) (int64, error) {
	var count int64
	err := r.DB.Model(&models.Course{}).
		Where("slug = ? OR slug LIKE ?", slug, slug+"-%").
		Count(&count).Error
	return count, err
}

// --- topics / subtopics ---

func (r *ContentRepository) CreateTopic(topic *models.Topic) error {
	return r.DB.Create(topic).Error
}

func (r *ContentRepository) GetTopic(id int64) (*models.Topic, error) {
	var topic models.Topic
	if err := r.DB.First(&topic, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTopicNotFound
		}
		return nil, err
	}
	return &topic, nil
}

func (r *ContentRepository) ListTopics(courseID int64) ([]models.Topic, error) {
	var topics []models.Topic
	err := r.DB.
		Where("course_id = ?", courseID).
		Order("sort_order ASC, id ASC").
		Preload("Subtopics", func(db *gorm.DB) *gorm.DB { return db.Order("sort_order ASC, id ASC") }).
		Find(&topics).Error
	return topics, err
}

func (r *ContentRepository) UpdateTopic(id int64, updates map[string]interface{}) error {
	res := r.DB.Model(&models.Topic{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrTopicNotFound
	}
	return nil
}

func (r *ContentRepository) DeleteTopic(id int64) error {
	res := r.DB.Delete(&models.Topic{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrTopicNotFound
	}
	return nil
}

func (r *ContentRepository) TopicExists(id int64) (bool, error) {
	var count int64
	if err := r.DB.Model(&models.Topic{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *ContentRepository) CreateSubtopic(subtopic *models.Subtopic) error {
	return r.DB.Create(subtopic).Error
}

func (r *ContentRepository) ListSubtopics(topicID int64) ([]models.Subtopic, error) {
	var subtopics []models.Subtopic
	err := r.DB.
		Where("topic_id = ?", topicID).
		Order("sort_order ASC, id ASC").
		Find(&subtopics).Error
	return subtopics, err
}

func (r *ContentRepository) UpdateSubtopic(id int64, updates map[string]interface{}) error {
	res := r.DB.Model(&models.Subtopic{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrSubtopicNotFound
	}
	return nil
}

func (r *ContentRepository) DeleteSubtopic(id int64) error {
	res := r.DB.Delete(&models.Subtopic{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrSubtopicNotFound
	}
	return nil
}

// --- tests / questions ---

func (r *ContentRepository) CreateTest(test *models.Test) error {
	return r.DB.Create(test).Error
}

func (r *ContentRepository) GetTest(id int64, withQuestions bool) (*models.Test, error) {
	var test models.Test
	q := r.DB
	if withQuestions {
		q = q.Preload("Questions")
	}
	if err := q.First(&test, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTestNotFound
		}
		return nil, err
	}
	return &test, nil
}

func (r *ContentRepository) ListTests(courseID *int64) ([]models.Test, error) {
	q := r.DB.Order("id ASC")
	if courseID != nil {
		q = q.Where("course_id = ?", *courseID)
	}
	var tests []models.Test
	err := q.Find(&tests).Error
	return tests, err
}

func (r *ContentRepository) UpdateTest(id int64, updates map[string]interface{}) error {
	res := r.DB.Model(&models.Test{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrTestNotFound
	}
	return nil
}

func (r *ContentRepository) DeleteTest(id int64) error {
	res := r.DB.Delete(&models.Test{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrTestNotFound
	}
	return nil
}

func (r *ContentRepository) TestExists(id int64) (bool, error) {
	var count int64
	if err := r.DB.Model(&models.Test{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *ContentRepository) CreateQuestion(question *models.Question) error {
	return r.DB.Create(question).Error
}

func (r *ContentRepository) GetQuestion(id int64) (*models.Question, error) {
	var question models.Question
	if err := r.DB.First(&question, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrQuestionNotFound
		}
		return nil, err
	}
	return &question, nil
}

func (r *ContentRepository) ListQuestions(testID int64) ([]models.Question, error) {
	var questions []models.Question
	err := r.DB.Where("test_id = ?", testID).Order("id ASC").Find(&questions).Error
	return questions, err
}

func (r *ContentRepository) DeleteQuestion(id int64) error {
	res := r.DB.Delete(&models.Question{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrQuestionNotFound
	}
	return nil
}

// PickQuestions selects up to duel.QuestionCount questions for duel play.
// The pool comes from the duel's test or from every test of its course,
// narrowed to the branch topic when branchType is specific. selectionType
// failed prefers questions either participant has missed before and tops
// up randomly when those run short.
func (r *ContentRepository) PickQuestions(duel *models.Duel) ([]models.Question, error) {
	pool := func() *gorm.DB {
		q := r.DB.Model(&models.Question{})
		if duel.TestID != nil {
			q = q.Where("questions.test_id = ?", *duel.TestID)
		} else if duel.CourseID != nil {
			q = q.Joins("JOIN tests ON tests.id = questions.test_id").
				Where("tests.course_id = ?", *duel.CourseID)
		}
		if duel.BranchType == models.BranchTypeSpecific && duel.BranchID != nil {
			q = q.Where("questions.topic_id = ?", *duel.BranchID)
		}
		return q
	}

	limit := duel.QuestionCount
	var questions []models.Question

	if duel.SelectionType == models.SelectionFailed {
		missed := r.DB.Model(&models.QuestionAnswer{}).
			Select("question_id").
			Where("user_id IN ? AND is_correct = ?", []int64{duel.InitiatorID, duel.OpponentID}, false)

		if err := pool().
			Where("questions.id IN (?)", missed).
			Order("RANDOM()").
			Limit(limit).
			Find(&questions).Error; err != nil {
			return nil, err
		}

		if len(questions) < limit {
			seen := make([]int64, 0, len(questions))
			for _, q := range questions {
				seen = append(seen, q.ID)
			}
			filler := pool().Order("RANDOM()").Limit(limit - len(questions))
			if len(seen) > 0 {
				filler = filler.Where("questions.id NOT IN ?", seen)
			}
			var extra []models.Question
			if err := filler.Find(&extra).Error; err != nil {
				return nil, err
			}
			questions = append(questions, extra...)
		}
		return questions, nil
	}

	err := pool().Order("RANDOM()").Limit(limit).Find(&questions).Error
	return questions, err
}
