package holdem

// NextActivePlayer returns the index of the first player after from, in seat
// order with wrap-around, that has neither folded nor gone all-in. The player
// at from is considered last. Returns NoPlayer when nobody can act.
func NextActivePlayer(players []*Player, from int) int {
	n := len(players)
	if n == 0 {
		return NoPlayer
	}
	if from < 0 || from >= n {
		from = n - 1
	}
	for step := 1; step <= n; step++ {
		i := (from + step) % n
		if players[i].canAct() {
			return i
		}
	}
	return NoPlayer
}
