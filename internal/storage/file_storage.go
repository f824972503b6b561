package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/h2non/filetype"
)

// PublicPrefix - URL-префикс, под которым роутер раздаёт файлы хранилища.
const PublicPrefix = "/files"

// sniffLen - сколько байт читается для определения типа. Для docx нужно больше 512 байт:
// признаки формата лежат в первых записях zip-архива.
const sniffLen = 8192

var (
	ErrEmptyFile       = errors.New("storage: файл пустой")
	ErrFileTooLarge    = errors.New("storage: размер файла превышает лимит")
	ErrUnsupportedType = errors.New("storage: неподдерживаемый тип файла")
)

// Разрешённые типы файлов: чеки (изображения, pdf) и результаты работ (pdf, docx, zip).
var allowedMimeTypes = map[string]bool{
	"image/jpeg":      true,
	"image/png":       true,
	"image/webp":      true,
	"application/pdf": true,
	"application/zip": true,
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": true,
}

// StoredFile - результат сохранения.
type StoredFile struct {
	URL      string `json:"url"`
	Path     string `json:"-"`
	FileName string `json:"fileName"`
	FileType string `json:"fileType"`
	FileSize int64  `json:"fileSize"`
}

// FileStorage хранит загруженные файлы на локальном диске.
type FileStorage struct {
	rootPath       string
	maxUploadBytes int64
}

// NewFileStorage создаёт файловое хранилище.
func NewFileStorage(rootPath string, maxUploadMB int64) (*FileStorage, error) {
	if err := os.MkdirAll(rootPath, 0o755); err != nil {
		return nil, fmt.Errorf("storage: не удалось создать каталог %s: %w", rootPath, err)
	}

	return &FileStorage{
		rootPath:       rootPath,
		maxUploadBytes: maxUploadMB * 1024 * 1024,
	}, nil
}

// RootPath возвращает корневой каталог хранилища.
func (s *FileStorage) RootPath() string {
	return s.rootPath
}

// Ping проверяет, что корневой каталог существует и доступен для записи.
func (s *FileStorage) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f, err := os.CreateTemp(s.rootPath, ".ping-*")
	if err != nil {
		return fmt.Errorf("storage: каталог недоступен для записи: %w", err)
	}
	name := f.Name()
	_ = f.Close()
	return os.Remove(name)
}

// DetectType определяет MIME-тип по магическим байтам и проверяет, что он разрешён.
func DetectType(head []byte) (string, string, error) {
	if len(head) == 0 {
		return "", "", ErrEmptyFile
	}
	kind, err := filetype.Match(head)
	if err != nil || kind == filetype.Unknown {
		return "", "", ErrUnsupportedType
	}
	if !allowedMimeTypes[kind.MIME.Value] {
		return "", "", fmt.Errorf("%w: %s", ErrUnsupportedType, kind.MIME.Value)
	}
	return kind.MIME.Value, kind.Extension, nil
}

// Save проверяет тип файла, сохраняет его в каталог пользователя и возвращает публичный URL.
func (s *FileStorage) Save(ctx context.Context, userID uuid.UUID, originalName string, r io.Reader) (*StoredFile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(r, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("storage: ошибка чтения файла: %w", err)
	}
	head = head[:n]

	mimeType, ext, err := DetectType(head)
	if err != nil {
		return nil, err
	}

	safeName := sanitizeFilename(originalName, ext)
	fileName := uuid.NewString() + "." + ext

	userDir := filepath.Join(s.rootPath, userID.String())
	if err := os.MkdirAll(userDir, 0o755); err != nil {
		return nil, fmt.Errorf("storage: не удалось создать каталог пользователя: %w", err)
	}

	targetPath := filepath.Join(userDir, fileName)
	tempPath := targetPath + ".tmp"

	f, err := os.Create(tempPath)
	if err != nil {
		return nil, fmt.Errorf("storage: не удалось создать файл: %w", err)
	}
	defer f.Close()

	limitedReader := io.LimitedReader{R: io.MultiReader(bytes.NewReader(head), r), N: s.maxUploadBytes + 1}
	written, err := io.Copy(f, &limitedReader)
	if err != nil {
		_ = os.Remove(tempPath)
		return nil, fmt.Errorf("storage: ошибка записи файла: %w", err)
	}

	if written > s.maxUploadBytes {
		_ = os.Remove(tempPath)
		return nil, fmt.Errorf("%w (%d байт)", ErrFileTooLarge, s.maxUploadBytes)
	}

	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("storage: ошибка закрытия файла: %w", err)
	}

	if err := os.Rename(tempPath, targetPath); err != nil {
		return nil, fmt.Errorf("storage: не удалось переименовать файл: %w", err)
	}

	relative := path.Join(userID.String(), fileName)
	return &StoredFile{
		URL:      PublicPrefix + "/" + relative,
		Path:     relative,
		FileName: safeName,
		FileType: mimeType,
		FileSize: written,
	}, nil
}

// Delete удаляет файл из хранилища.
func (s *FileStorage) Delete(ctx context.Context, relativePath string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	relativePath = strings.TrimPrefix(relativePath, PublicPrefix+"/")
	if strings.Contains(relativePath, "..") {
		return fmt.Errorf("storage: некорректный путь %q", relativePath)
	}

	target := filepath.Join(s.rootPath, filepath.FromSlash(relativePath))
	if err := os.Remove(target); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("storage: не удалось удалить файл: %w", err)
	}
	return nil
}

// sanitizeFilename удаляет потенциально опасные символы из имени, которое видит пользователь.
func sanitizeFilename(name, ext string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	name = strings.ReplaceAll(name, "..", "")
	name = strings.ReplaceAll(name, "/", "_")
	if name == "" || name == "." {
		name = "file." + ext
	}
	if len(name) > 255 {
		name = name[len(name)-255:]
	}
	return name
}
