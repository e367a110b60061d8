package protocol

// Message type tags carried in the mandatory "type" field.
const (
	TypeFetchLobby       = "fetchLobby"
	TypeCreateGame       = "createGame"
	TypeJoinGame         = "joinGame"
	TypeMove             = "move"
	TypeCreateTournament = "createTournament"
	TypeJoinTournament   = "joinTournament"

	TypeError             = "error"
	TypeLobbyData         = "lobbyData"
	TypeGameCreated       = "gameCreated"
	TypeOpponentJoined    = "opponentJoined"
	TypeGameStart         = "gameStart"
	TypeTimeOut           = "timeOut"
	TypeTimeUpdate        = "timeUpdate"
	TypeGameOver          = "gameOver"
	TypeTournamentCreated = "tournamentCreated"
	TypeTournamentJoined  = "tournamentJoined"
)
