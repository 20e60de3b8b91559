// Package chess implements the rules of chess: piece movement, legality
// (a move may not leave the mover's king attacked), castling, en passant,
// promotion, and detection of check, checkmate and stalemate.
//
// Draws by repetition or the fifty-move rule are not detected, and no move
// history beyond the previous move is kept.
package chess
