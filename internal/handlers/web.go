package handlers

import "net/http"

// Index serves the built-in web shell, a single page driving the session API.
func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write([]byte(indexHTML))
}

const indexHTML = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>Magic Chess Go Go - Opponent Predictor</title>
<style>
  body { font-family: 'Segoe UI', sans-serif; background: #1a1a2e; color: #eaeaea; margin: 0; padding: 20px; }
  .container { max-width: 720px; margin: 0 auto; }
  h1 { color: #e94560; font-size: 1.4em; }
  .panel { background: #16213e; border-radius: 8px; padding: 16px; margin-bottom: 16px; }
  .row { display: flex; gap: 12px; align-items: center; flex-wrap: wrap; }
  label { color: #9aa0b5; }
  select, button { padding: 8px 14px; border-radius: 6px; border: none; font-size: 1em; }
  button { background: #e94560; color: #fff; cursor: pointer; }
  button:disabled { background: #555; cursor: wait; }
  button.secondary { background: #0f3460; }
  .pred { display: flex; justify-content: space-between; background: #0f3460; border-radius: 6px; padding: 10px 14px; margin: 6px 0; }
  .pred button { font-size: 0.85em; padding: 4px 10px; }
  .prob { color: #e94560; font-weight: bold; }
  .history-item { border-left: 3px solid #e94560; padding: 4px 10px; margin: 6px 0; color: #9aa0b5; font-size: 0.9em; }
  .error { color: #ff6b6b; margin-top: 8px; }
  .muted { color: #666; }
</style>
</head>
<body>
<div class="container">
  <h1>Magic Chess Go Go - Opponent Predictor</h1>

  <div class="panel">
    <div class="row">
      <label for="player">Playing as</label>
      <select id="player"></select>
      <label>Current round <strong id="round"></strong></label>
      <label>Last opponent <strong id="lastOpp"></strong></label>
    </div>
    <div class="row" style="margin-top:12px">
      <button id="predictBtn">Predict next opponent</button>
      <button id="resetBtn" class="secondary">Reset</button>
      <span id="status" class="muted"></span>
    </div>
    <div id="error" class="error"></div>
  </div>

  <div class="panel">
    <h3>Next round predictions</h3>
    <div id="predictions" class="muted">No predictions yet.</div>
  </div>

  <div class="panel">
    <h3>Round history</h3>
    <div id="history" class="muted">Empty.</div>
  </div>
</div>

<script>
let sessionId = null;

async function api(path, opts) {
  const res = await fetch(path, Object.assign({headers: {'Content-Type': 'application/json'}}, opts));
  return res.json();
}

function render(state) {
  document.getElementById('player').value = state.selected_player;
  document.getElementById('round').textContent = state.current_round;
  document.getElementById('lastOpp').textContent = state.last_opponent;
  document.getElementById('status').textContent = state.loading ? 'predicting...' : '';
  document.getElementById('error').textContent = state.error || '';
  document.getElementById('predictBtn').disabled = !!state.loading;

  const preds = document.getElementById('predictions');
  if (!state.predictions || state.predictions.length === 0) {
    preds.innerHTML = '<span class="muted">No predictions yet.</span>';
  } else {
    preds.innerHTML = state.predictions.map(p =>
      '<div class="pred"><span>' + p.opponent + '</span>' +
      '<span><span class="prob">' + p.probability.toFixed(1) + '%</span> ' +
      '<button onclick="faced(\'' + p.opponent + '\')">This was my opponent</button></span></div>'
    ).join('');
  }

  const hist = document.getElementById('history');
  if (!state.history || state.history.length === 0) {
    hist.innerHTML = '<span class="muted">Empty.</span>';
  } else {
    hist.innerHTML = state.history.map(e =>
      '<div class="history-item">' + e.round + ' vs ' + e.opponent + ' &rarr; predicted: ' +
      e.predictions.map(p => p.opponent + ' (' + p.probability.toFixed(1) + '%)').join(', ') + '</div>'
    ).join('');
  }
}

async function refresh() {
  const data = await api('/api/v1/sessions/' + sessionId);
  render(data.state);
}

async function predict() {
  const data = await api('/api/v1/sessions/' + sessionId + '/predict', {method: 'POST'});
  render(data.state);
}

async function faced(opponent) {
  const data = await api('/api/v1/sessions/' + sessionId + '/continue',
    {method: 'POST', body: JSON.stringify({opponent: opponent})});
  render(data.state);
  // the chained prediction runs server-side; poll once for its result
  setTimeout(refresh, 600);
}

async function reset() {
  const data = await api('/api/v1/sessions/' + sessionId + '/reset', {method: 'POST'});
  render(data.state);
}

async function changePlayer(player) {
  const data = await api('/api/v1/sessions/' + sessionId + '/player',
    {method: 'PUT', body: JSON.stringify({player: player})});
  render(data.state);
}

async function init() {
  const roster = await api('/api/v1/players');
  const sel = document.getElementById('player');
  sel.innerHTML = roster.players.map(p => '<option>' + p + '</option>').join('');
  sel.onchange = () => changePlayer(sel.value);

  const created = await api('/api/v1/sessions', {method: 'POST'});
  sessionId = created.session_id;
  render(created.state);

  document.getElementById('predictBtn').onclick = predict;
  document.getElementById('resetBtn').onclick = reset;
}

init();
</script>
</body>
</html>
`
