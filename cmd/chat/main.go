// Command chat is a minimal example wiring the Anthropic adapter end to end:
// environment bootstrap, one registered tool, and streamed output.
package main

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"github.com/hyperia-ai/chatglue/core/client"
	"github.com/hyperia-ai/chatglue/providers/ai"
	"github.com/hyperia-ai/chatglue/providers/ai/anthropic"
	"github.com/hyperia-ai/chatglue/providers/observability/slogobs"
	"github.com/hyperia-ai/chatglue/providers/tool"
)

type weatherInput struct {
	City string `json:"city" jsonschema:"description=City to look up,required"`
}

type weatherOutput struct {
	City         string  `json:"city"`
	TemperatureC float64 `json:"temperature_c"`
	Conditions   string  `json:"conditions"`
}

func getWeather(_ context.Context, input weatherInput) (weatherOutput, error) {
	// Stand-in data; a real deployment would call a weather API here.
	return weatherOutput{City: input.City, TemperatureC: 21.5, Conditions: "clear"}, nil
}

func main() {
	// .env is optional; real environments set ANTHROPIC_API_KEY directly.
	_ = godotenv.Load()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	weather := tool.NewTool("get_weather", getWeather,
		tool.WithDescription("Returns current weather for a city."),
	)

	chat, err := client.New(anthropic.New(),
		client.WithModel("claude-sonnet-4-20250514"),
		client.WithSystemPrompt("You are a concise assistant."),
		client.WithTools(weather),
		client.WithObserver(slogobs.New(logger)),
	)
	if err != nil {
		fmt.Fprintln(os.Stderr, "setup failed:", err)
		os.Exit(1)
	}

	fmt.Println("chat ready — type a message, Ctrl-D to quit")
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		result := chat.Send(context.Background(),
			ai.Message{Role: ai.RoleUser, Content: line},
			client.WithDelta(func(delta string) { fmt.Print(delta) }),
		)
		fmt.Println()
		if result.Err != nil {
			fmt.Fprintln(os.Stderr, "turn degraded:", result.Err)
		}
	}
}
