package chess

// Perft counts the leaf nodes of the legal move tree to the given depth.
// The game is returned to its starting state.
func Perft(g *Game, depth int) int {
	if depth <= 0 {
		return 1
	}
	moves := g.LegalMoves(g.turn)
	if depth == 1 {
		return len(moves)
	}
	nodes := 0
	for _, m := range moves {
		takeBack := g.play(m)
		nodes += Perft(g, depth-1)
		takeBack()
	}
	return nodes
}

// Divide returns the perft count below each legal move of the side to move.
func Divide(g *Game, depth int) map[Move]int {
	counts := make(map[Move]int)
	if depth <= 0 {
		return counts
	}
	for _, m := range g.LegalMoves(g.turn) {
		takeBack := g.play(m)
		counts[m] = Perft(g, depth-1)
		takeBack()
	}
	return counts
}
