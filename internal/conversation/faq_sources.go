package conversation

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/lib/pq"
	"gopkg.in/yaml.v3"
)

type faqDocument struct {
	FAQ []FAQEntry `yaml:"faq"`
}

// DecodeFAQ reads a YAML (or JSON) FAQ document with a top-level "faq" list.
func DecodeFAQ(r io.Reader) ([]FAQEntry, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var doc faqDocument
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("conversation: faq document is empty")
		}
		return nil, fmt.Errorf("conversation: decode faq: %w", err)
	}
	return doc.FAQ, nil
}

// FileFAQSource loads the FAQ from a local YAML file.
type FileFAQSource struct {
	Path string
}

func (s FileFAQSource) LoadFAQ(_ context.Context) ([]FAQEntry, error) {
	f, err := os.Open(s.Path)
	if err != nil {
		return nil, fmt.Errorf("conversation: open faq file: %w", err)
	}
	defer f.Close()
	return DecodeFAQ(f)
}

type s3GetObjectAPI interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3FAQSource loads the FAQ document from an S3 object so content editors can
// update it without a deploy.
type S3FAQSource struct {
	client s3GetObjectAPI
	bucket string
	key    string
}

// NewS3FAQSource creates an S3-backed source.
func NewS3FAQSource(client s3GetObjectAPI, bucket, key string) *S3FAQSource {
	return &S3FAQSource{client: client, bucket: bucket, key: key}
}

func (s *S3FAQSource) LoadFAQ(ctx context.Context) ([]FAQEntry, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key),
	})
	if err != nil {
		return nil, fmt.Errorf("conversation: get faq object s3://%s/%s: %w", s.bucket, s.key, err)
	}
	defer out.Body.Close()
	return DecodeFAQ(out.Body)
}

// PostgresFAQSource loads FAQ rows from the faq_entries table in position order.
type PostgresFAQSource struct {
	db *sql.DB
}

// NewPostgresFAQSource creates a database-backed source.
func NewPostgresFAQSource(db *sql.DB) *PostgresFAQSource {
	return &PostgresFAQSource{db: db}
}

func (s *PostgresFAQSource) LoadFAQ(ctx context.Context) ([]FAQEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, keywords, answer_uz, answer_ru
		FROM faq_entries
		WHERE active
		ORDER BY position, id
	`)
	if err != nil {
		return nil, fmt.Errorf("conversation: query faq entries: %w", err)
	}
	defer rows.Close()

	var entries []FAQEntry
	for rows.Next() {
		var (
			id       string
			keywords []string
			uz, ru   sql.NullString
		)
		if err := rows.Scan(&id, pq.Array(&keywords), &uz, &ru); err != nil {
			return nil, fmt.Errorf("conversation: scan faq entry: %w", err)
		}
		answers := make(map[Language]string, 2)
		if strings.TrimSpace(uz.String) != "" {
			answers[LanguageUzbek] = uz.String
		}
		if strings.TrimSpace(ru.String) != "" {
			answers[LanguageRussian] = ru.String
		}
		entries = append(entries, FAQEntry{ID: id, Keywords: keywords, Answers: answers})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("conversation: iterate faq entries: %w", err)
	}
	return entries, nil
}

// SaveFAQEntry upserts one entry at position.
func (s *PostgresFAQSource) SaveFAQEntry(ctx context.Context, position int, entry FAQEntry) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO faq_entries (id, position, keywords, answer_uz, answer_ru, active)
		VALUES ($1, $2, $3, $4, $5, TRUE)
		ON CONFLICT (id) DO UPDATE
		SET position = EXCLUDED.position,
		    keywords = EXCLUDED.keywords,
		    answer_uz = EXCLUDED.answer_uz,
		    answer_ru = EXCLUDED.answer_ru,
		    active = TRUE
	`, entry.ID, position, pq.Array(entry.Keywords), entry.Answers[LanguageUzbek], entry.Answers[LanguageRussian])
	if err != nil {
		return fmt.Errorf("conversation: save faq entry %s: %w", entry.ID, err)
	}
	return nil
}
