package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/bytedance/sonic"
)

// CloseMarket закрывает лонг маркетом. Возвращает ordId.
func (c *Client) CloseMarket(ctx context.Context, instID string, size float64) (string, error) {
	if size <= 0 {
		return "", fmt.Errorf("CloseMarket: size <= 0")
	}

	bodyMap := map[string]any{
		"instId":  instID,
		"tdMode":  "cross",
		"side":    "sell", // закрываем long
		"posSide": "long",
		"ordType": "market",
		"sz":      strconv.FormatFloat(size, 'f', -1, 64),
	}
	payload, _ := sonic.Marshal(bodyMap)

	const requestPath = "/api/v5/trade/order"
	ts := okxTimestamp()
	sign := c.sign(ts, http.MethodPost, requestPath, string(payload))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		baseURL+requestPath, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("CloseMarket new request: %w", err)
	}
	c.authHeaders(req, ts, sign)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("CloseMarket do: %w", err)
	}
	defer resp.Body.Close()

	data, _ := io.ReadAll(resp.Body)
	if resp.StatusCode/100 != 2 {
		return "", fmt.Errorf("CloseMarket http %d: %s", resp.StatusCode, string(data))
	}

	var r struct {
		Code string `json:"code"`
		Msg  string `json:"msg"`
		Data []struct {
			OrdId string `json:"ordId"`
			SCode string `json:"sCode"`
			SMsg  string `json:"sMsg"`
		} `json:"data"`
	}
	_ = json.Unmarshal(data, &r)

	if r.Code != "0" {
		return "", fmt.Errorf("CloseMarket error: code=%s msg=%s RAW=%s", r.Code, r.Msg, string(data))
	}
	if len(r.Data) == 0 || r.Data[0].SCode != "0" {
		return "", fmt.Errorf("CloseMarket reject RAW=%s", string(data))
	}
	return r.Data[0].OrdId, nil
}
