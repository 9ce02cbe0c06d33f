package web

import (
	"context"
	"io"

	"github.com/a-h/templ"
)

func TeacherDashboard(data DashboardData) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, _ = io.WriteString(w, `<!doctype html>
<html lang="en">
  <head>
    <meta charset="utf-8"/>
    <meta name="viewport" content="width=device-width, initial-scale=1"/>
    <title>Scores</title>
    <style>
      body { font-family: system-ui, sans-serif; margin: 0; background: #f5f6f8; color: #1d2330; }
      main { max-width: 1100px; margin: 0 auto; padding: 24px; }
      header { display: flex; justify-content: space-between; align-items: baseline; }
      form.filters { display: flex; flex-wrap: wrap; gap: 8px; margin: 16px 0; }
      form.filters input, form.filters select { padding: 6px 8px; }
      table { width: 100%; border-collapse: collapse; background: #fff; }
      th, td { padding: 8px 10px; border-bottom: 1px solid #e3e6ec; text-align: left; }
      th { background: #eef1f6; }
      .status { font-size: 0.9em; color: #5b6475; }
      .status.live { color: #1f7a3f; }
      button.delete { background: none; border: 1px solid #c33; color: #c33; border-radius: 4px; cursor: pointer; }
      .exports a { margin-left: 12px; }
    </style>
  </head>
  <body>
    <main>
      <header>
        <h1>Scores</h1>
        <span>Signed in as <strong>`)
		_, _ = io.WriteString(w, templ.EscapeString(data.User))
		_, _ = io.WriteString(w, `</strong></span>
      </header>

      <form id="filters" class="filters">
        <input name="classe" placeholder="Class"/>
        <input name="game_type" placeholder="Game type"/>
        <input name="q" placeholder="Search name, number, game"/>
        <select name="order">
          <option value="time_seconds">Time</option>
          <option value="errors">Errors</option>
        </select>
        <select name="dir">
          <option value="asc">Ascending</option>
          <option value="desc">Descending</option>
        </select>
        <input name="limit" type="number" min="1" max="1000" value="200"/>
        <button type="submit">Apply</button>
        <span class="exports">
          <a id="exportCsv" href="/export.csv">CSV</a>
          <a id="exportXlsx" href="/export.xlsx">XLSX</a>
        </span>
      </form>

      <p id="status" class="status">Connecting...</p>

      <table>
        <thead>
          <tr>
            <th>#</th><th>Name</th><th>Class</th><th>Student</th>
            <th>Time (s)</th><th>Errors</th><th>Game</th><th>Created</th><th></th>
          </tr>
        </thead>
        <tbody id="rows"></tbody>
      </table>
    </main>

    <script>
      const tokensEnabled = `)
		_, _ = io.WriteString(w, jsBool(data.TokensEnabled))
		_, _ = io.WriteString(w, `;
      const form = document.getElementById("filters");
      const tbody = document.getElementById("rows");
      const statusEl = document.getElementById("status");
      let rows = [];

      function params() {
        const out = new URLSearchParams();
        for (const [key, value] of new FormData(form)) {
          if (String(value).trim() !== "") {
            out.set(key, String(value).trim());
          }
        }
        return out;
      }

      function updateExportLinks() {
        const query = params();
        query.delete("limit");
        const suffix = query.toString() ? "?" + query.toString() : "";
        document.getElementById("exportCsv").href = "/export.csv" + suffix;
        document.getElementById("exportXlsx").href = "/export.xlsx" + suffix;
      }

      function cell(text) {
        const td = document.createElement("td");
        td.textContent = text;
        return td;
      }

      function formatCreated(value) {
        if (!value) {
          return "";
        }
        const parsed = new Date(value.replace(" ", "T") + "Z");
        return isNaN(parsed) ? value : parsed.toLocaleString();
      }

      function render() {
        tbody.replaceChildren();
        for (const row of rows) {
          const tr = document.createElement("tr");
          tr.dataset.id = row.id;
          tr.append(
            cell(row.id), cell(row.name), cell(row.classe), cell(row.student_number),
            cell(row.time_seconds), cell(row.errors), cell(row.game_type),
            cell(formatCreated(row.created_at))
          );
          const td = document.createElement("td");
          const btn = document.createElement("button");
          btn.className = "delete";
          btn.textContent = "Delete";
          btn.addEventListener("click", () => removeRow(row.id));
          td.append(btn);
          tr.append(td);
          tbody.append(tr);
        }
      }

      async function load() {
        updateExportLinks();
        const res = await fetch("/scores?" + params().toString());
        const data = await res.json();
        if (!res.ok) {
          statusEl.textContent = data.error || "Failed to load scores.";
          return;
        }
        rows = data.rows;
        render();
      }

      async function removeRow(id) {
        if (!confirm("Delete score #" + id + "?")) {
          return;
        }
        const res = await fetch("/scores/" + id, { method: "DELETE" });
        if (!res.ok) {
          const data = await res.json().catch(() => ({}));
          alert(data.error || "Delete failed.");
        }
      }

      async function connect() {
        let url = (location.protocol === "https:" ? "wss://" : "ws://") + location.host + "/ws/scores";
        if (tokensEnabled) {
          const res = await fetch("/teacher/ws-token");
          const data = await res.json();
          url += "?token=" + encodeURIComponent(data.token);
        }
        const socket = new WebSocket(url);
        socket.addEventListener("open", () => {
          statusEl.textContent = "Live";
          statusEl.classList.add("live");
        });
        socket.addEventListener("message", (msg) => {
          const event = JSON.parse(msg.data);
          if (event.type === "new-score") {
            load();
          } else if (event.type === "delete-score") {
            rows = rows.filter((row) => row.id !== event.payload.id);
            render();
          }
        });
        socket.addEventListener("close", () => {
          statusEl.textContent = "Disconnected, retrying...";
          statusEl.classList.remove("live");
          setTimeout(connect, 2000);
        });
      }

      form.addEventListener("submit", (event) => {
        event.preventDefault();
        load();
      });

      load();
      connect();
    </script>
  </body>
</html>`)
		return nil
	})
}
