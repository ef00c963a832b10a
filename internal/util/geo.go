package util

import "math"

const earthRadiusM = 6371000

// ValidCoordinates 校验经纬度取值范围
func ValidCoordinates(lat, lon float64) bool {
	return lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180
}

// HaversineDistance 两点间大圆距离（米）
func HaversineDistance(lat1, lon1, lat2, lon2 float64) float64 {
	toRad := func(v float64) float64 { return v * math.Pi / 180 }

	dLat := toRad(lat2 - lat1)
	dLon := toRad(lon2 - lon1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Sin(dLon/2)*math.Sin(dLon/2)*math.Cos(toRad(lat1))*math.Cos(toRad(lat2))

	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusM * c
}

// InRange 用户是否在地标有效半径内
func InRange(userLat, userLon, landmarkLat, landmarkLon, radius float64) bool {
	return HaversineDistance(userLat, userLon, landmarkLat, landmarkLon) <= radius
}
