package rules

// scanWinner scans all rows, columns and both diagonals of the grid for a
// maximal run of at least `need` cells held by the same player and returns
// that player's id, or "" if no such run exists. The first satisfying line
// encountered wins.
func scanWinner(grid [][]string, need int) string {
	rows := len(grid)
	if rows == 0 {
		return ""
	}
	cols := len(grid[0])

	// direction vectors: right, down, down-right, down-left
	dirs := [4][2]int{{0, 1}, {1, 0}, {1, 1}, {1, -1}}

	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			owner := grid[r][c]
			if owner == "" {
				continue
			}
			for _, d := range dirs {
				run := 1
				rr, cc := r+d[0], c+d[1]
				for rr >= 0 && rr < rows && cc >= 0 && cc < cols && grid[rr][cc] == owner {
					run++
					if run >= need {
						return owner
					}
					rr += d[0]
					cc += d[1]
				}
			}
		}
	}
	return ""
}

// gridFull reports whether no empty cell remains.
func gridFull(grid [][]string) bool {
	for _, row := range grid {
		for _, cell := range row {
			if cell == "" {
				return false
			}
		}
	}
	return true
}
