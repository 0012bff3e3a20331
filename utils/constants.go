package utils

const (
	MaxPlayers = 2 // Left and right paddle

	LeftIndex  = 0
	RightIndex = 1

	AIName             = "AI"
	DefaultPlayer1Name = "Player 1"
	DefaultPlayer2Name = "Player 2"

	Player1NameKey = "pong-player1-name" //INFO keys of the persisted name store
	Player2NameKey = "pong-player2-name"

	ExplorerTxURL = "https://subnets-test.avax.network/c-chain/tx/"

	HistoryLimit      = 10
	HistoryBlockRange = 2000
)

// NameKeys maps a player slot to its persisted name key.
var NameKeys = [MaxPlayers]string{Player1NameKey, Player2NameKey}
