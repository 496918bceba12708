//go:generate gomarkdoc -e -f github -o README.md . --repository.url https://github.com/feelpp/aptforge --repository.default-branch main --repository.path /

package aptforge
