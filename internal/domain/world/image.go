package world

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"mime"
	"strings"
)

// DefaultImageMIMEType 图像生成固定输出的编码
const DefaultImageMIMEType = "image/jpeg"

// Image 自描述的内嵌图像数据（不是 URL 引用），可直接展示或下载。
// JSON 形式为 data URI 字符串。
type Image struct {
	MIMEType string
	Data     []byte
}

// IsZero 是否为空图像
func (img Image) IsZero() bool {
	return len(img.Data) == 0
}

// DataURI 渲染为 data:<mime>;base64,<payload>
func (img Image) DataURI() string {
	mt := img.MIMEType
	if mt == "" {
		mt = DefaultImageMIMEType
	}
	return "data:" + mt + ";base64," + base64.StdEncoding.EncodeToString(img.Data)
}

// Extension 根据 MIME 类型推断文件扩展名
func (img Image) Extension() string {
	switch img.MIMEType {
	case "image/jpeg", "":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/webp":
		return ".webp"
	}
	if exts, err := mime.ExtensionsByType(img.MIMEType); err == nil && len(exts) > 0 {
		return exts[0]
	}
	return ".bin"
}

// ParseDataURI 解析 base64 编码的 data URI
func ParseDataURI(s string) (Image, error) {
	rest, ok := strings.CutPrefix(s, "data:")
	if !ok {
		return Image{}, fmt.Errorf("not a data uri")
	}
	header, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return Image{}, fmt.Errorf("data uri missing payload separator")
	}
	mt, isBase64 := strings.CutSuffix(header, ";base64")
	if !isBase64 {
		return Image{}, fmt.Errorf("data uri is not base64 encoded")
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return Image{}, fmt.Errorf("decode data uri payload: %w", err)
	}
	if len(data) == 0 {
		return Image{}, fmt.Errorf("data uri payload is empty")
	}
	return Image{MIMEType: mt, Data: data}, nil
}

// MarshalJSON 实现 json.Marshaler
func (img Image) MarshalJSON() ([]byte, error) {
	return json.Marshal(img.DataURI())
}

// UnmarshalJSON 实现 json.Unmarshaler
func (img *Image) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := ParseDataURI(s)
	if err != nil {
		return err
	}
	*img = parsed
	return nil
}
