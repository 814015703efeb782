package firestore

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"

	"testseries-service/internal/domain"
)

// Quiz documents were written by several generations of admin tooling, so
// numbers may arrive as strings and the other way round.
type detailsDoc struct {
	ID             string      `firestore:"id,omitempty"`
	Title          string      `firestore:"title"`
	Grade          string      `firestore:"grade"`
	TimeLimit      interface{} `firestore:"timeLimit"`
	TargetAudience string      `firestore:"targetAudience"`
	StartTime      string      `firestore:"startTime,omitempty"`
	EndTime        string      `firestore:"endTime,omitempty"`
	ExamType       string      `firestore:"examType,omitempty"`
}

type questionDoc struct {
	ID            interface{} `firestore:"id"`
	Number        interface{} `firestore:"questionNo,omitempty"`
	Text          string      `firestore:"question"`
	Option1       interface{} `firestore:"option1"`
	Option2       interface{} `firestore:"option2"`
	Option3       interface{} `firestore:"option3"`
	Option4       interface{} `firestore:"option4"`
	CorrectOption interface{} `firestore:"correctOption"`
	Marks         interface{} `firestore:"marks"`
	ImageLink     string      `firestore:"imageLink,omitempty"`
}

type quizDoc struct {
	Details   detailsDoc    `firestore:"details"`
	Questions []questionDoc `firestore:"questions"`
	Subject   string        `firestore:"subject,omitempty"`
	Type      string        `firestore:"type,omitempty"`
	Archive   bool          `firestore:"archive"`
	CreatedBy string        `firestore:"createdBy,omitempty"`
	CreatedAt time.Time     `firestore:"createdAt"`
	UpdatedAt time.Time     `firestore:"updatedAt"`
}

func text(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case int64:
		return strconv.FormatInt(t, 10)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return fmt.Sprint(t)
	}
}

func number(v interface{}) int {
	switch t := v.(type) {
	case int64:
		return int(t)
	case float64:
		return int(t)
	case string:
		n, _ := strconv.Atoi(strings.TrimSpace(t))
		return n
	}
	return 0
}

func (d quizDoc) toDomain(id string) domain.Quiz {
	q := domain.Quiz{
		ID: id,
		Details: domain.Details{
			ID:             d.Details.ID,
			Title:          d.Details.Title,
			Grade:          d.Details.Grade,
			TimeLimit:      number(d.Details.TimeLimit),
			TargetAudience: d.Details.TargetAudience,
			StartTime:      d.Details.StartTime,
			EndTime:        d.Details.EndTime,
			ExamType:       d.Details.ExamType,
		},
		Subject:   d.Subject,
		Type:      d.Type,
		Archive:   d.Archive,
		CreatedBy: d.CreatedBy,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
		Questions: make([]domain.Question, 0, len(d.Questions)),
	}
	for i, qd := range d.Questions {
		qid := text(qd.ID)
		if qid == "" {
			qid = fmt.Sprintf("q-%d", i+1)
		}
		q.Questions = append(q.Questions, domain.Question{
			ID:            qid,
			Number:        text(qd.Number),
			Text:          qd.Text,
			Option1:       text(qd.Option1),
			Option2:       text(qd.Option2),
			Option3:       text(qd.Option3),
			Option4:       text(qd.Option4),
			CorrectOption: text(qd.CorrectOption),
			Marks:         domain.ParseMarks(qd.Marks),
			ImageLink:     qd.ImageLink,
		})
	}
	return q
}

func fromDomainQuiz(q domain.Quiz) quizDoc {
	d := quizDoc{
		Details: detailsDoc{
			ID:             q.Details.ID,
			Title:          q.Details.Title,
			Grade:          q.Details.Grade,
			TimeLimit:      int64(q.Details.TimeLimit),
			TargetAudience: q.Details.TargetAudience,
			StartTime:      q.Details.StartTime,
			EndTime:        q.Details.EndTime,
			ExamType:       q.Details.ExamType,
		},
		Subject:   q.Subject,
		Type:      q.Type,
		Archive:   q.Archive,
		CreatedBy: q.CreatedBy,
		CreatedAt: q.CreatedAt,
		UpdatedAt: q.UpdatedAt,
		Questions: make([]questionDoc, 0, len(q.Questions)),
	}
	for _, qq := range q.Questions {
		qd := questionDoc{
			ID:            qq.ID,
			Text:          qq.Text,
			Option1:       qq.Option1,
			Option2:       qq.Option2,
			Option3:       qq.Option3,
			Option4:       qq.Option4,
			CorrectOption: qq.CorrectOption,
			Marks:         int64(qq.Points()),
			ImageLink:     qq.ImageLink,
		}
		if qq.Number != "" {
			qd.Number = qq.Number
		}
		d.Questions = append(d.Questions, qd)
	}
	return d
}

func (s *Store) quizzes() *firestore.CollectionRef {
	return s.client.Collection(quizzesCollection)
}

func (s *Store) LoadQuiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	snap, err := s.quizzes().Doc(quizID).Get(ctx)
	if isNotFound(err) {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	if err != nil {
		return domain.Quiz{}, fmt.Errorf("load quiz: %w", err)
	}
	var doc quizDoc
	if err := snap.DataTo(&doc); err != nil {
		return domain.Quiz{}, fmt.Errorf("decode quiz %s: %w", quizID, err)
	}
	return doc.toDomain(snap.Ref.ID), nil
}

// ListQuizzes pushes the type and grade filters to Firestore and applies the
// rest of the query in process.
func (s *Store) ListQuizzes(ctx context.Context, query domain.QuizQuery) ([]domain.Quiz, error) {
	q := s.quizzes().Query
	switch {
	case query.LiveOnly:
		q = q.Where("type", "==", domain.QuizTypeLive)
	case len(query.Grades) > 0 && len(query.Grades) <= 30:
		grades := make([]interface{}, 0, len(query.Grades))
		for _, g := range query.Grades {
			grades = append(grades, g)
		}
		q = q.Where("details.grade", "in", grades)
	}

	iter := q.Documents(ctx)
	defer iter.Stop()
	out := make([]domain.Quiz, 0)
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("list quizzes: %w", err)
		}
		var doc quizDoc
		if err := snap.DataTo(&doc); err != nil {
			return nil, fmt.Errorf("decode quiz %s: %w", snap.Ref.ID, err)
		}
		quiz := doc.toDomain(snap.Ref.ID)
		if query.Matches(quiz) {
			out = append(out, quiz)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *Store) SaveQuiz(ctx context.Context, quiz domain.Quiz) error {
	if _, err := s.quizzes().Doc(quiz.ID).Set(ctx, fromDomainQuiz(quiz)); err != nil {
		return fmt.Errorf("save quiz: %w", err)
	}
	return nil
}

func (s *Store) DeleteQuiz(ctx context.Context, quizID string) error {
	ref := s.quizzes().Doc(quizID)
	if _, err := ref.Get(ctx); isNotFound(err) {
		return domain.ErrQuizNotFound
	} else if err != nil {
		return fmt.Errorf("delete quiz: %w", err)
	}
	if _, err := ref.Delete(ctx); err != nil {
		return fmt.Errorf("delete quiz: %w", err)
	}
	return nil
}

func (s *Store) SetArchived(ctx context.Context, quizID string, archived bool) error {
	_, err := s.quizzes().Doc(quizID).Update(ctx, []firestore.Update{
		{Path: "archive", Value: archived},
		{Path: "updatedAt", Value: firestore.ServerTimestamp},
	})
	if isNotFound(err) {
		return domain.ErrQuizNotFound
	}
	if err != nil {
		return fmt.Errorf("set archived: %w", err)
	}
	return nil
}
