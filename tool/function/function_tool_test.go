package function

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type weatherInput struct {
	City string `json:"city"`
	Days int    `json:"days,omitempty"`
}

type weatherOutput struct {
	Forecast []string `json:"forecast"`
}

func getWeather(ctx context.Context, in weatherInput) (weatherOutput, error) {
	if in.City == "" {
		return weatherOutput{}, errors.New("city is required")
	}
	forecast := make([]string, in.Days)
	for i := range forecast {
		forecast[i] = "sunny"
	}
	return weatherOutput{Forecast: forecast}, nil
}

func TestFunctionTool_Call(t *testing.T) {
	ft := NewFunctionTool(getWeather,
		WithName("get_weather"),
		WithDescription("returns the forecast for a city"),
	)

	result, err := ft.Call(context.Background(), []byte(`{"city":"paris","days":2}`))
	require.NoError(t, err)

	out, ok := result.(weatherOutput)
	require.True(t, ok)
	assert.Len(t, out.Forecast, 2)
}

func TestFunctionTool_CallPropagatesFunctionError(t *testing.T) {
	ft := NewFunctionTool(getWeather, WithName("get_weather"))

	_, err := ft.Call(context.Background(), []byte(`{"days":1}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "city is required")
}

func TestFunctionTool_CallRejectsMalformedArguments(t *testing.T) {
	ft := NewFunctionTool(getWeather, WithName("get_weather"))

	_, err := ft.Call(context.Background(), []byte(`{not json`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "get_weather")
}

func TestFunctionTool_EmptyArgumentsUseZeroInput(t *testing.T) {
	ft := NewFunctionTool(
		func(ctx context.Context, in weatherInput) (string, error) {
			return in.City, nil
		},
		WithName("echo_city"),
	)

	result, err := ft.Call(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, "", result)
}

func TestFunctionTool_Declaration(t *testing.T) {
	ft := NewFunctionTool(getWeather,
		WithName("get_weather"),
		WithDescription("returns the forecast for a city"),
	)

	decl := ft.Declaration()
	require.NotNil(t, decl)
	assert.Equal(t, "get_weather", decl.Name)
	assert.Equal(t, "returns the forecast for a city", decl.Description)

	require.NotNil(t, decl.InputSchema)
	assert.Equal(t, "object", decl.InputSchema.Type)
	require.Contains(t, decl.InputSchema.Properties, "city")
	assert.Equal(t, "string", decl.InputSchema.Properties["city"].Type)
	require.Contains(t, decl.InputSchema.Properties, "days")
	assert.Equal(t, "integer", decl.InputSchema.Properties["days"].Type)

	require.NotNil(t, decl.OutputSchema)
	require.Contains(t, decl.OutputSchema.Properties, "forecast")
	assert.Equal(t, "array", decl.OutputSchema.Properties["forecast"].Type)
}
