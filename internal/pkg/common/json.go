package common

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	json "github.com/goccy/go-json"
)

// ParseJSON 解析 JSON 字符串到結構體
func ParseJSON(data string, v interface{}) error {
	return decodeJSON(strings.NewReader(data), v)
}

// ParseJSONBytes 解析 JSON 位元組切片到結構體
func ParseJSONBytes(data []byte, v interface{}) error {
	return decodeJSON(bytes.NewReader(data), v)
}

// DecodeJSON 使用統一設定解析 JSON
func DecodeJSON(r io.Reader, v interface{}) error {
	return decodeJSON(r, v)
}

func decodeJSON(r io.Reader, v interface{}) error {
	dec := json.NewDecoder(r)
	if err := dec.Decode(v); err != nil {
		return err
	}

	// 確保沒有多餘資料
	var extra json.RawMessage
	if err := dec.Decode(&extra); err != io.EOF {
		return fmt.Errorf("unexpected extra JSON data")
	}
	return nil
}

// ExtractJSON 取出文字中第一個 JSON 物件或陣列，模型回覆常夾帶說明文字
func ExtractJSON(content string) string {
	content = strings.TrimSpace(content)
	start := strings.IndexAny(content, "[{")
	if start == -1 {
		return content
	}
	closing := "}"
	if content[start] == '[' {
		closing = "]"
	}
	end := strings.LastIndex(content, closing)
	if end <= start {
		return content
	}
	return content[start : end+1]
}

// ToJSON 將結構體轉換為 JSON 字符串
func ToJSON(v interface{}) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
