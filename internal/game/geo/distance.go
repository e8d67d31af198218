// Package geo 提供猜地点游戏的距离计算与计分
package geo

import (
	"math"

	"github.com/shopspring/decimal"
)

// EarthRadiusKm 地球平均半径（公里）
const EarthRadiusKm = 6371.0

// Point 经纬度坐标（定点小数）
type Point struct {
	Latitude  decimal.Decimal
	Longitude decimal.Decimal
}

// NewPoint 由浮点数构造坐标
func NewPoint(lat, lng float64) Point {
	return Point{Latitude: decimal.NewFromFloat(lat), Longitude: decimal.NewFromFloat(lng)}
}

// Valid 纬度在[-90,90]，经度在[-180,180]
func (p Point) Valid() bool {
	lat, _ := p.Latitude.Float64()
	lng, _ := p.Longitude.Float64()
	return lat >= -90 && lat <= 90 && lng >= -180 && lng <= 180
}

// DistanceKm 两点间的大圆距离（haversine）
func DistanceKm(correct, guess Point) float64 {
	if correct.Latitude.Equal(guess.Latitude) && correct.Longitude.Equal(guess.Longitude) {
		return 0
	}

	lat1, _ := correct.Latitude.Float64()
	lng1, _ := correct.Longitude.Float64()
	lat2, _ := guess.Latitude.Float64()
	lng2, _ := guess.Longitude.Float64()

	dLat := toRadians(lat2 - lat1)
	dLng := toRadians(lng2 - lng1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRadians(lat1))*math.Cos(toRadians(lat2))*math.Sin(dLng/2)*math.Sin(dLng/2)
	// 浮点误差可能让a略超出[0,1]
	a = math.Min(1, math.Max(0, a))
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return EarthRadiusKm * c
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}
