package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"wordwarrior/internal/database"
	"wordwarrior/internal/models"
	"wordwarrior/internal/repository"
)

// BackupVersion is written into every export
const BackupVersion = "1.0"

// BackupData represents the complete database backup structure
type BackupData struct {
	Version      string               `json:"version"`
	ExportedAt   time.Time            `json:"exported_at"`
	DatabaseType string               `json:"database_type"`
	Players      []models.Player      `json:"players"`
	Stats        []models.PlayerStats `json:"stats"`
	Rooms        []RoomBackup         `json:"rooms"`
}

// RoomBackup is a battle room with its answer log
type RoomBackup struct {
	Room    *models.BattleRoom    `json:"room"`
	Answers []models.BattleAnswer `json:"answers"`
}

// ObjectUploader is the part of the S3 client backups need
type ObjectUploader interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// BackupService exports and restores match history and player stats.
// Queue entries are ephemeral and never backed up.
type BackupService struct {
	db *database.DB
}

// NewBackupService creates a new backup service
func NewBackupService(db *database.DB) *BackupService {
	return &BackupService{db: db}
}

// Export writes a complete backup to a file
func (s *BackupService) Export(ctx context.Context, outputPath string) error {
	log.Println("Starting database export...")

	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer file.Close()

	backup, err := s.ExportToWriter(ctx, file)
	if err != nil {
		return err
	}

	log.Printf("Database exported successfully to %s", outputPath)
	log.Printf("Exported: %d players, %d stats, %d rooms", len(backup.Players), len(backup.Stats), len(backup.Rooms))
	return nil
}

// ExportToWriter encodes a complete backup to w
func (s *BackupService) ExportToWriter(ctx context.Context, w io.Writer) (*BackupData, error) {
	backup, err := s.collect(ctx)
	if err != nil {
		return nil, err
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(backup); err != nil {
		return nil, fmt.Errorf("failed to encode backup: %w", err)
	}
	return backup, nil
}

func (s *BackupService) collect(ctx context.Context) (*BackupData, error) {
	backup := &BackupData{
		Version:      BackupVersion,
		ExportedAt:   time.Now().UTC(),
		DatabaseType: s.db.Dialect.DriverName(),
	}

	players, err := s.exportPlayers(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to export players: %w", err)
	}
	backup.Players = players

	if backup.Stats, err = repository.NewStatsRepository(s.db).All(ctx); err != nil {
		return nil, fmt.Errorf("failed to export stats: %w", err)
	}

	rooms, err := repository.NewRoomRepository(s.db).All(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to export rooms: %w", err)
	}
	answers := repository.NewAnswerRepository(s.db)
	for _, room := range rooms {
		roomAnswers, err := answers.ForRoom(ctx, room.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to export answers for room %s: %w", room.ID, err)
		}
		backup.Rooms = append(backup.Rooms, RoomBackup{Room: room, Answers: roomAnswers})
	}
	return backup, nil
}

func (s *BackupService) exportPlayers(ctx context.Context) ([]models.Player, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT id, display_name, created_at FROM players ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var players []models.Player
	for rows.Next() {
		var p models.Player
		if err := rows.Scan(&p.ID, &p.DisplayName, &p.CreatedAt); err != nil {
			return nil, err
		}
		players = append(players, p)
	}
	return players, rows.Err()
}

// Import restores a backup file
func (s *BackupService) Import(ctx context.Context, inputPath string) error {
	log.Printf("Starting database import from %s...", inputPath)

	file, err := os.Open(inputPath)
	if err != nil {
		return fmt.Errorf("failed to open input file: %w", err)
	}
	defer file.Close()

	return s.ImportFromReader(ctx, file)
}

// ImportFromReader restores a backup from a reader.
// Existing rooms and answers are kept; stats and player names are overwritten.
func (s *BackupService) ImportFromReader(ctx context.Context, reader io.Reader) error {
	var backup BackupData
	if err := json.NewDecoder(reader).Decode(&backup); err != nil {
		return fmt.Errorf("failed to decode backup: %w", err)
	}

	log.Printf("Backup version: %s, exported at: %s", backup.Version, backup.ExportedAt)

	imported := 0
	err := s.db.WithTx(ctx, func(tx *database.Tx) error {
		imported = 0
		players := repository.NewPlayerRepository(tx)
		for _, p := range backup.Players {
			if err := players.Upsert(ctx, p.ID, p.DisplayName); err != nil {
				return fmt.Errorf("failed to import player %s: %w", p.ID, err)
			}
		}

		stats := repository.NewStatsRepository(tx)
		for i := range backup.Stats {
			if err := stats.Save(ctx, &backup.Stats[i]); err != nil {
				return fmt.Errorf("failed to import stats for %s: %w", backup.Stats[i].PlayerID, err)
			}
		}

		rooms := repository.NewRoomRepository(tx)
		answers := repository.NewAnswerRepository(tx)
		for _, rb := range backup.Rooms {
			if rb.Room == nil {
				continue
			}
			ok, err := rooms.Import(ctx, rb.Room)
			if err != nil {
				return fmt.Errorf("failed to import room %s: %w", rb.Room.ID, err)
			}
			if ok {
				imported++
			}
			for _, a := range rb.Answers {
				if _, err := answers.Insert(ctx, a); err != nil {
					return fmt.Errorf("failed to import answer for room %s: %w", rb.Room.ID, err)
				}
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	log.Printf("Database import completed successfully: %d new rooms", imported)
	return nil
}

// NewS3Client builds an S3 client from the default AWS credential chain
func NewS3Client(ctx context.Context, region string) (*s3.Client, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return s3.NewFromConfig(cfg), nil
}

// UploadToS3 exports the database and stores it under key in bucket
func (s *BackupService) UploadToS3(ctx context.Context, client ObjectUploader, bucket, key string) error {
	var buf bytes.Buffer
	if _, err := s.ExportToWriter(ctx, &buf); err != nil {
		return err
	}

	_, err := client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(buf.Bytes()),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("failed to upload backup to s3://%s/%s: %w", bucket, key, err)
	}

	log.Printf("Backup uploaded to s3://%s/%s (%d bytes)", bucket, key, buf.Len())
	return nil
}
