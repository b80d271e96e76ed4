package tools

import (
	"fmt"
	"time"
)

// GetCurrentTimeInput is the schema-inferred parameter struct for
// getCurrentTime. It takes no fields but eino's InferTool requires a struct.
type GetCurrentTimeInput struct{}

// GetCurrentTime returns the current time in RFC 3339.
func GetCurrentTime() string {
	return time.Now().Format(time.RFC3339)
}

// GetWeatherInput is the schema-inferred parameter struct for getWeather.
type GetWeatherInput struct {
	City string `json:"city" jsonschema:"description=city name"`
}

// GetWeather is a stub with no external weather provider wired in; it
// reports that the lookup is unavailable rather than fabricating data.
func GetWeather(city string) string {
	return fmt.Sprintf("暂不支持查询 %s 的实时天气，请稍后再试。", city)
}
