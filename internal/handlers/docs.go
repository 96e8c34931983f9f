package handlers

import "net/http"

const apiDocs = `<!DOCTYPE html>
<html>
<head><title>clickchess API</title></head>
<body>
<h1>clickchess API</h1>
<p>Play chess against the built-in engine. Clicks drive the game: the first
click on one of your pieces selects it, the second click plays the move if
it is legal (an illegal destination clears the selection).</p>

<h2>Games</h2>
<pre>
POST /api/games                      {"humanColor":"white|black","depth":1-4}  -> {sessionId, snapshot}
GET  /api/games/{sessionId}                                                    -> {snapshot}
POST /api/games/{sessionId}/click    {"square":"e2"}                           -> {snapshot}
POST /api/games/{sessionId}/resign                                             -> {snapshot}
GET  /api/games/recent               (requires auth)                           -> [gameRecord]
</pre>

<h2>WebSocket</h2>
<pre>
GET /ws/games/{sessionId}
  client -> server: {"type":"click","square":"e2"}
  server -> client: {"type":"snapshot","snapshot":{...}}
</pre>

<h2>Auth (optional; requires a configured database)</h2>
<pre>
POST /api/auth/register   {"displayName":"...","password":"..."}  -> {token, user}
POST /api/auth/login      {"displayName":"...","password":"..."}  -> {token, user}
GET  /api/auth/me         (Bearer token)                          -> user
</pre>

<p>Snapshots carry the position as FEN plus the pending origin square and
the last move's squares for highlighting.</p>
</body>
</html>`

// ServeAPIDocs serves the API reference page.
func ServeAPIDocs(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write([]byte(apiDocs))
}
