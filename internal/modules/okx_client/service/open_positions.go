package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
)

type ExchangePosition struct {
	InstID  string
	PosSide string
	Size    float64
	AvgPx   float64
	LastPx  float64
}

// OpenPositions — текущие позиции на бирже, для сверки с нашей таблицей.
func (c *Client) OpenPositions(ctx context.Context) ([]ExchangePosition, error) {
	const requestPath = "/api/v5/account/positions?instType=SWAP"
	ts := okxTimestamp()
	sign := c.sign(ts, http.MethodGet, requestPath, "")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+requestPath, nil)
	if err != nil {
		return nil, fmt.Errorf("OpenPositions new request: %w", err)
	}
	c.authHeaders(req, ts, sign)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("OpenPositions do: %w", err)
	}
	defer resp.Body.Close()

	data, _ := io.ReadAll(resp.Body)
	if resp.StatusCode/100 != 2 {
		return nil, fmt.Errorf("OpenPositions http %d: %s", resp.StatusCode, string(data))
	}

	var r struct {
		Code string `json:"code"`
		Msg  string `json:"msg"`
		Data []struct {
			InstId  string `json:"instId"`
			PosSide string `json:"posSide"`
			Pos     string `json:"pos"`
			AvgPx   string `json:"avgPx"`
			Last    string `json:"last"`
		} `json:"data"`
	}
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("OpenPositions decode: %w", err)
	}
	if r.Code != "0" {
		return nil, fmt.Errorf("OpenPositions error: code=%s msg=%s", r.Code, r.Msg)
	}

	out := make([]ExchangePosition, 0, len(r.Data))
	for _, d := range r.Data {
		size, _ := strconv.ParseFloat(d.Pos, 64)
		if size == 0 {
			continue
		}
		avg, _ := strconv.ParseFloat(d.AvgPx, 64)
		last, _ := strconv.ParseFloat(d.Last, 64)
		out = append(out, ExchangePosition{
			InstID:  d.InstId,
			PosSide: d.PosSide,
			Size:    size,
			AvgPx:   avg,
			LastPx:  last,
		})
	}
	return out, nil
}
