package utils

import (
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
)

// EnsureUploadDir creates the local uploads directory if it doesn't exist
func EnsureUploadDir() error {
	return os.MkdirAll("uploads", os.ModePerm)
}

// SaveFile writes the uploaded file to destPath, creating parent dirs.
func SaveFile(fileHeader *multipart.FileHeader, destPath string) error {
	dir := filepath.Dir(destPath)
	if err := os.MkdirAll(dir, os.ModePerm); err != nil {
		return err
	}

	file, err := fileHeader.Open()
	if err != nil {
		return err
	}
	defer file.Close()

	dst, err := os.Create(destPath)
	if err != nil {
		return err
	}
	defer dst.Close()

	_, err = io.Copy(dst, file)
	return err
}

// StoreUpload puts the file in R2 when configured, otherwise under the
// local uploads dir served at /uploads. Returns the public URL either way.
func StoreUpload(fileHeader *multipart.FileHeader, key string) (string, error) {
	if R2Configured() {
		return UploadFileToR2(fileHeader, key)
	}
	if err := SaveFile(fileHeader, filepath.Join("uploads", key)); err != nil {
		return "", err
	}
	return "/uploads/" + key, nil
}
