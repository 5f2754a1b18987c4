package common

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"screenmatch/internal/errors"
	"screenmatch/internal/utils"
)

// NamedFile pairs a file's base name with its raw content. Resume documents
// are passed around as bytes because PDF and DOCX payloads are binary.
type NamedFile struct {
	Name string
	Data []byte
}

// FileProcessor handles common file operations
type FileProcessor struct {
	logger *errors.Logger
}

// NewFileProcessor creates a new file processor instance
func NewFileProcessor(logger *errors.Logger) *FileProcessor {
	return &FileProcessor{logger: logger}
}

// ReadFile reads content from a text file with proper error handling
func (fp *FileProcessor) ReadFile(filename string) (string, error) {
	data, err := fp.ReadFileBytes(filename)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// ReadFileBytes reads raw content from a file with proper error handling
func (fp *FileProcessor) ReadFileBytes(filename string) ([]byte, error) {
	file, err := os.Open(filename)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewIOError(errors.ErrCodeFileNotFound,
				fmt.Sprintf("File not found: %s", filename), err)
		}
		return nil, errors.NewIOError(errors.ErrCodeFileNotReadable,
			fmt.Sprintf("Cannot read file: %s", filename), err)
	}
	defer func() {
		if err := file.Close(); err != nil {
			// Log the error but don't override the main operation result
			if fp.logger != nil {
				fp.logger.Warn("Failed to close file", "filename", filename, "error", err)
			}
		}
	}()

	content, err := io.ReadAll(file)
	if err != nil {
		return nil, errors.NewIOError(errors.ErrCodeFileNotReadable,
			fmt.Sprintf("Failed to read file content: %s", filename), err)
	}

	return content, nil
}

// WriteFile writes content to a file with directory creation
func (fp *FileProcessor) WriteFile(filename, content string) error {
	dir := filepath.Dir(filename)
	if dir != "." {
		err := os.MkdirAll(dir, 0750)
		if err != nil {
			return errors.NewIOError("DIRECTORY_CREATE_FAILED",
				fmt.Sprintf("Cannot create directory: %s", dir), err)
		}
	}

	err := os.WriteFile(filename, []byte(content), 0600)
	if err != nil {
		return errors.NewIOError("FILE_WRITE_FAILED",
			fmt.Sprintf("Cannot write file: %s", filename), err)
	}

	return nil
}

// ValidateAndReadDocuments validates and reads resume documents as raw bytes,
// keeping each file's base name for downstream format detection.
func (fp *FileProcessor) ValidateAndReadDocuments(filenames ...string) ([]NamedFile, error) {
	files := make([]NamedFile, len(filenames))

	for i, filename := range filenames {
		if err := utils.ValidateInputFile(filename); err != nil {
			return nil, errors.NewValidationError("INVALID_INPUT_FILE",
				fmt.Sprintf("Invalid file %s", filename), err)
		}

		if !utils.IsResumeFile(filename) {
			if fp.logger != nil {
				fp.logger.Warn("File extension is not a known resume format",
					"filename", filename)
			} else {
				fmt.Fprintf(os.Stderr, "Warning: %s is not a known resume format\n", filename)
			}
		}

		data, err := fp.ReadFileBytes(filename)
		if err != nil {
			return nil, err // Error already wrapped by ReadFileBytes
		}

		files[i] = NamedFile{Name: filepath.Base(filename), Data: data}
	}

	return files, nil
}

// ValidateOutputFile validates output file path
func (fp *FileProcessor) ValidateOutputFile(filename string) error {
	if filename == "" {
		return nil // stdout is valid
	}

	if err := utils.ValidateOutputFile(filename); err != nil {
		return errors.NewValidationError("INVALID_OUTPUT_FILE",
			fmt.Sprintf("Invalid output file: %s", filename), err)
	}

	return nil
}
