package probe

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// verify runs every check over two responses of the same request.
func verify(first, second listResponse) []CheckResult {
	results := []CheckResult{
		checkSuccess(first, second),
		checkIdempotent(first, second),
	}

	vehicles, err := decodeVehicles(first)
	if err != nil {
		return append(results, CheckResult{Name: "decode", Detail: err.Error()})
	}
	return append(results,
		checkCounts(first, len(vehicles)),
		checkOpportunities(first, vehicles),
		checkPrices(vehicles),
	)
}

func decodeVehicles(r listResponse) ([]vehicle, error) {
	var out []vehicle
	if len(r.Vehicles) == 0 {
		return out, nil
	}
	if err := json.Unmarshal(r.Vehicles, &out); err != nil {
		return nil, fmt.Errorf("decode vehiculos: %w", err)
	}
	return out, nil
}

func checkSuccess(first, second listResponse) CheckResult {
	return CheckResult{
		Name:   "success",
		Passed: first.Success && second.Success,
		Detail: fmt.Sprintf("first=%t second=%t", first.Success, second.Success),
	}
}

func checkIdempotent(first, second listResponse) CheckResult {
	r := CheckResult{Name: "idempotent", Passed: bytes.Equal(first.Vehicles, second.Vehicles)}
	if !r.Passed {
		r.Detail = "vehiculos differ between identical requests"
	}
	return r
}

func checkCounts(r listResponse, n int) CheckResult {
	return CheckResult{
		Name:   "counts",
		Passed: r.Count == n && r.Stats.Total == n,
		Detail: fmt.Sprintf("count=%d vehiculos=%d totalComparables=%d", r.Count, n, r.Stats.Total),
	}
}

func checkOpportunities(r listResponse, vehicles []vehicle) CheckResult {
	high := 0
	for _, v := range vehicles {
		if v.Position != nil && *v.Position == "alto" {
			high++
		}
	}
	return CheckResult{
		Name:   "opportunities",
		Passed: r.Stats.Opportunities == high,
		Detail: fmt.Sprintf("oportunidades=%d alto=%d", r.Stats.Opportunities, high),
	}
}

func checkPrices(vehicles []vehicle) CheckResult {
	r := CheckResult{Name: "positive_prices", Passed: true}
	for _, v := range vehicles {
		if v.Recommended != nil && *v.Recommended <= 0 {
			r.Passed = false
			r.Detail = fmt.Sprintf("vehicle %s recommended %.2f", v.ID, *v.Recommended)
			break
		}
	}
	return r
}
