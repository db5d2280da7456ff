package mapview

// Coarse continent outlines as [lon, lat] rings. They only need to read as
// a world map at terminal resolution.
var landRings = [][][2]float64{
	// North America
	{{-168, 66}, {-162, 70}, {-140, 70}, {-125, 70}, {-95, 72}, {-80, 73}, {-62, 66}, {-56, 52}, {-66, 45}, {-70, 42}, {-76, 35}, {-81, 31}, {-80, 25}, {-83, 29}, {-90, 30}, {-97, 27}, {-97, 22}, {-92, 18}, {-87, 21}, {-88, 16}, {-83, 10}, {-78, 8}, {-80, 7}, {-86, 12}, {-92, 14}, {-105, 20}, {-110, 23}, {-115, 30}, {-117, 33}, {-121, 35}, {-124, 40}, {-124, 48}, {-130, 55}, {-140, 60}, {-150, 60}, {-158, 57}, {-165, 60}},
	// South America
	{{-78, 8}, {-72, 12}, {-62, 10}, {-52, 5}, {-35, -5}, {-39, -15}, {-48, -26}, {-58, -35}, {-65, -42}, {-68, -52}, {-73, -53}, {-75, -45}, {-73, -35}, {-71, -18}, {-76, -14}, {-81, -5}, {-80, 1}},
	// Europe
	{{-10, 36}, {-9, 43}, {-2, 44}, {-5, 48}, {2, 51}, {8, 54}, {8, 57}, {5, 59}, {5, 62}, {14, 68}, {25, 71}, {31, 70}, {40, 67}, {45, 68}, {60, 69}, {60, 55}, {50, 47}, {40, 47}, {37, 45}, {29, 41}, {26, 40}, {23, 36}, {20, 40}, {16, 38}, {12, 44}, {8, 44}, {3, 43}, {-1, 37}, {-6, 36}},
	// Asia
	{{60, 69}, {70, 73}, {80, 73}, {100, 78}, {115, 74}, {140, 72}, {160, 70}, {180, 69}, {180, 65}, {170, 60}, {160, 60}, {156, 51}, {142, 59}, {135, 55}, {140, 48}, {130, 42}, {127, 35}, {122, 40}, {119, 35}, {122, 30}, {120, 23}, {110, 20}, {108, 12}, {105, 9}, {100, 13}, {101, 3}, {104, 1}, {98, 8}, {98, 16}, {92, 21}, {88, 22}, {80, 15}, {77, 8}, {73, 18}, {67, 25}, {57, 25}, {56, 27}, {50, 30}, {48, 30}, {50, 25}, {56, 25}, {59, 22}, {52, 16}, {43, 13}, {39, 21}, {35, 28}, {34, 31}, {36, 36}, {29, 41}, {37, 45}, {40, 47}, {50, 47}, {60, 55}},
	// Africa
	{{-17, 21}, {-10, 30}, {-6, 36}, {10, 37}, {11, 33}, {20, 31}, {32, 31}, {34, 28}, {39, 21}, {43, 12}, {51, 12}, {51, 10}, {40, -3}, {40, -15}, {35, -25}, {32, -29}, {20, -35}, {18, -30}, {12, -17}, {13, -6}, {9, -1}, {9, 4}, {4, 6}, {-8, 4}, {-13, 8}, {-17, 14}},
	// Australia
	{{114, -22}, {122, -18}, {131, -12}, {137, -12}, {142, -11}, {146, -19}, {153, -26}, {150, -37}, {141, -38}, {135, -35}, {129, -32}, {115, -34}},
	// Greenland
	{{-73, 78}, {-60, 82}, {-30, 83}, {-20, 78}, {-22, 70}, {-40, 65}, {-43, 60}, {-50, 64}, {-55, 70}, {-68, 76}},
	// Great Britain
	{{-5, 50}, {1, 51}, {1, 53}, {-2, 56}, {-3, 58.6}, {-6, 58}, {-5, 55}, {-3, 54}, {-5, 52}},
	// Ireland
	{{-10, 52}, {-6, 52}, {-6, 55}, {-8, 55}, {-10, 54}},
	// Iceland
	{{-24, 64}, {-14, 64}, {-15, 66}, {-22, 66}},
	// Japan
	{{130, 31}, {132, 34}, {135, 34}, {140, 35}, {141, 38}, {142, 41}, {141, 45}, {144, 44}, {145, 43}, {140, 41}, {139, 38}, {136, 37}, {133, 35}, {130, 33}},
	// Madagascar
	{{44, -25}, {47, -25}, {50, -15}, {49, -12}, {44, -16}},
	// Sumatra
	{{95, 5}, {98, 4}, {106, -6}, {104, -6}, {100, -1}},
	// Java
	{{105, -6}, {114, -7}, {114, -8}, {106, -7}},
	// Borneo
	{{109, 2}, {117, 7}, {119, 5}, {117, -4}, {111, -3}},
	// New Guinea
	{{131, -1}, {141, -3}, {150, -10}, {141, -9}, {137, -5}},
	// Philippines
	{{120, 18}, {122, 18}, {126, 7}, {122, 7}},
	// New Zealand
	{{172, -34}, {178, -38}, {174, -41}, {172, -41}, {169, -46}, {167, -46}, {172, -41}},
	// Cuba
	{{-85, 22}, {-74, 20}, {-78, 21}},
	// Antarctica
	{{-180, -65}, {180, -65}, {180, -90}, {-180, -90}},
}

// isLand reports whether lon/lat falls inside any outline (even-odd rule).
func isLand(lon, lat float64) bool {
	for _, ring := range landRings {
		if inRing(ring, lon, lat) {
			return true
		}
	}
	return false
}

func inRing(ring [][2]float64, x, y float64) bool {
	in := false
	for i, j := 0, len(ring)-1; i < len(ring); j, i = i, i+1 {
		xi, yi := ring[i][0], ring[i][1]
		xj, yj := ring[j][0], ring[j][1]
		if (yi > y) != (yj > y) && x < (xj-xi)*(y-yi)/(yj-yi)+xi {
			in = !in
		}
	}
	return in
}
